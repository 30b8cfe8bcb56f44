package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"kopilka/internal/classifier"
	applog "kopilka/internal/log"
	"kopilka/internal/storage"
)

// BootstrapClassifier readies cls for serving. A saved artifact is preferred;
// otherwise the classifier is trained on the seed corpus followed by every
// stored correction.
func BootstrapClassifier(ctx context.Context, cls *classifier.Classifier, path string, repo *storage.SQLiteRepository) error {
	if path != "" {
		err := cls.Load(path)
		if err == nil {
			slog.InfoContext(ctx, "Classifier loaded from artifact",
				"path", path,
				"backend", cls.Backend(),
				"examples", len(cls.Examples()))
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "Classifier artifact unusable, retraining", "path", path, "error", err)
		}
	}

	examples := cls.Dictionary().SeedExamples()
	if repo != nil {
		feedback, err := repo.ListFeedback(ctx)
		if err != nil {
			return fmt.Errorf("load feedback: %w", err)
		}
		for _, f := range feedback {
			examples = append(examples, classifier.Example{Text: f.Description, Category: f.Category})
		}
		slog.InfoContext(ctx, "Replaying stored feedback", "count", len(feedback))
	}

	if err := cls.Train(examples); err != nil {
		return fmt.Errorf("train classifier: %w", err)
	}
	slog.InfoContext(ctx, "Classifier trained",
		applog.FieldOperation, applog.OpRetrain,
		"backend", cls.Backend(),
		"examples", len(cls.Examples()))
	return nil
}
