package classifier

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"kopilka/internal/core"
)

var backends = []string{BackendLogReg, BackendBayes}

func newTrained(t *testing.T, backend string) *Classifier {
	t.Helper()
	c, err := New(Options{Backend: backend})
	if err != nil {
		t.Fatalf("New(%q): %v", backend, err)
	}
	if err := c.TrainSeed(); err != nil {
		t.Fatalf("TrainSeed(%q): %v", backend, err)
	}
	return c
}

func TestUntrainedUsesDictionary(t *testing.T) {
	c, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.Trained() {
		t.Fatal("new classifier should be untrained")
	}
	cases := map[string]string{
		"хлеб молоко":      core.CategoryFood,
		"Такси до дома":    core.CategoryTransport,
		"оплатил ИНТЕРНЕТ": core.CategoryTelecom,
		"что-то странное":  core.CategoryOther,
		"":                 core.CategoryOther,
	}
	for in, want := range cases {
		if got := c.Classify(in); got != want {
			t.Errorf("Classify(%q) = %q, want %q", in, got, want)
		}
		if got := c.Confidence(in); got != NeutralConfidence {
			t.Errorf("Confidence(%q) = %v, want %v", in, got, NeutralConfidence)
		}
	}
}

func TestTrainEmpty(t *testing.T) {
	c, _ := New(Options{})
	if err := c.Train(nil); !errors.Is(err, ErrEmptyTrainingSet) {
		t.Fatalf("Train(nil) err = %v", err)
	}
	if err := c.Train([]Example{{Text: "123 !!", Category: core.CategoryFood}}); !errors.Is(err, ErrEmptyTrainingSet) {
		t.Fatalf("Train(no letters) err = %v", err)
	}
	if c.Trained() {
		t.Fatal("failed Train must leave classifier untrained")
	}
	if err := c.Train([]Example{{Text: "хлеб", Category: "Food"}}); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("Train(bad category) err = %v", err)
	}
}

func TestTrainedClassify(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			c := newTrained(t, backend)
			if got := c.Classify("хлеб молоко"); got != core.CategoryFood {
				t.Fatalf("Classify(хлеб молоко) = %q", got)
			}
			if got := c.Classify(""); got != core.CategoryOther {
				t.Fatalf("Classify(\"\") = %q", got)
			}
			if got := c.Classify("zzzz qqq"); got != core.CategoryOther {
				t.Fatalf("Classify(unseen) = %q", got)
			}
			for _, ex := range DefaultDictionary.SeedExamples() {
				if got := c.Classify(ex.Text); got != ex.Category {
					t.Errorf("seed %q classified as %q, want %q", ex.Text, got, ex.Category)
				}
			}
			if got := c.Confidence("хлеб"); got != 1 {
				t.Errorf("Confidence(trained example) = %v, want 1", got)
			}
			if got := c.Confidence("zzzz"); got != 0 {
				t.Errorf("Confidence(no features) = %v, want 0", got)
			}
			for _, in := range []string{"", "123 !!"} {
				if got := c.Confidence(in); got != 0 {
					t.Errorf("Confidence(%q) = %v, want 0", in, got)
				}
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	inputs := []string{"хлебушек и молочко", "билеты в кинотеатр", "новые кроссовки", "оплата за квартиру", "zz"}
	for _, backend := range backends {
		c := newTrained(t, backend)
		for _, in := range inputs {
			l1, c1 := c.Predict(in)
			l2, c2 := c.Predict(in)
			if l1 != l2 || c1 != c2 {
				t.Fatalf("%s: Predict(%q) not deterministic: (%q,%v) vs (%q,%v)", backend, in, l1, c1, l2, c2)
			}
			if c1 < 0 || c1 > 1 {
				t.Fatalf("%s: confidence %v out of range", backend, c1)
			}
		}
	}
}

func TestRetrainWithFeedback(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			c := newTrained(t, backend)
			seed := DefaultDictionary.SeedExamples()
			before := make(map[string]string, len(seed))
			for _, ex := range seed {
				before[ex.Text] = c.Classify(ex.Text)
			}

			if err := c.RetrainWithFeedback("Подарок маме!", core.CategoryOther); err != nil {
				t.Fatalf("RetrainWithFeedback: %v", err)
			}
			if err := c.RetrainWithFeedback("гель для стирки", core.CategoryHousehold); err != nil {
				t.Fatalf("RetrainWithFeedback: %v", err)
			}

			if got := c.Classify("подарок маме"); got != core.CategoryOther {
				t.Fatalf("first correction lost: %q", got)
			}
			if got := c.Classify("Гель для стирки"); got != core.CategoryHousehold {
				t.Fatalf("second correction: %q", got)
			}
			for text, want := range before {
				if got := c.Classify(text); got != want {
					t.Errorf("seed %q changed from %q to %q", text, want, got)
				}
			}
			if n := len(c.Examples()); n != len(seed)+2 {
				t.Fatalf("corpus size = %d, want %d", n, len(seed)+2)
			}
		})
	}
}

func TestRetrainOverridesEarlierLabel(t *testing.T) {
	c := newTrained(t, BackendLogReg)
	if err := c.RetrainWithFeedback("кофе", core.CategoryEntertainment); err != nil {
		t.Fatal(err)
	}
	if got := c.Classify("кофе"); got != core.CategoryEntertainment {
		t.Fatalf("Classify(кофе) = %q", got)
	}
}

func TestRetrainUntrainedStartsFromSeed(t *testing.T) {
	c, _ := New(Options{})
	if err := c.RetrainWithFeedback("абонемент в бассейн", core.CategoryHealth); err != nil {
		t.Fatal(err)
	}
	if !c.Trained() {
		t.Fatal("expected trained classifier")
	}
	if got := c.Classify("абонемент в бассейн"); got != core.CategoryHealth {
		t.Fatalf("Classify = %q", got)
	}
	if got := c.Classify("хлеб молоко"); got != core.CategoryFood {
		t.Fatalf("seed lost: %q", got)
	}
	if n := len(c.Examples()); n != len(DefaultDictionary.SeedExamples())+1 {
		t.Fatalf("corpus size = %d", n)
	}
}

func TestRetrainRejectsBadInput(t *testing.T) {
	c := newTrained(t, BackendLogReg)
	n := len(c.Examples())
	if err := c.RetrainWithFeedback("123", core.CategoryFood); !errors.Is(err, ErrEmptyExample) {
		t.Fatalf("err = %v", err)
	}
	if err := c.RetrainWithFeedback("хлеб", "Bread"); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("err = %v", err)
	}
	if len(c.Examples()) != n {
		t.Fatal("rejected feedback must not change the corpus")
	}
	if got := c.Classify("хлеб"); got != core.CategoryFood {
		t.Fatalf("model changed after rejected feedback: %q", got)
	}
}

func TestConcurrentClassifyDuringRetrain(t *testing.T) {
	c := newTrained(t, BackendLogReg)
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if got := c.Classify("хлеб"); got != core.CategoryFood {
					t.Errorf("Classify(хлеб) = %q during retrain", got)
					return
				}
			}
		}()
	}
	for i, text := range []string{"шаурма", "электрички", "наушники"} {
		cat := core.Categories()[i]
		if err := c.RetrainWithFeedback(text, cat); err != nil {
			t.Errorf("retrain %d: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()
}

func TestUnknownBackend(t *testing.T) {
	if _, err := New(Options{Backend: "svm"}); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v", err)
	}
	if _, err := New(Options{ConfidenceThreshold: 1.5}); err == nil {
		t.Fatal("expected threshold error")
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model", "classifier.json")
			c, err := New(Options{Backend: backend, ModelPath: path})
			if err != nil {
				t.Fatal(err)
			}
			if err := c.TrainSeed(); err != nil {
				t.Fatal(err)
			}
			if err := c.RetrainWithFeedback("подарок маме", core.CategoryOther); err != nil {
				t.Fatal(err)
			}
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("artifact not written: %v", err)
			}

			loaded, _ := New(Options{Backend: backend})
			if err := loaded.Load(path); err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(loaded.Examples()) != len(c.Examples()) {
				t.Fatalf("examples %d vs %d", len(loaded.Examples()), len(c.Examples()))
			}
			for _, in := range []string{"подарок маме", "хлеб молоко", "новые кроссовки", "билеты в кинотеатр"} {
				l1, c1 := c.Predict(in)
				l2, c2 := loaded.Predict(in)
				if l1 != l2 || math.Abs(c1-c2) > 1e-9 {
					t.Errorf("Predict(%q): original (%q,%v) loaded (%q,%v)", in, l1, c1, l2, c2)
				}
			}

			entries, _ := os.ReadDir(filepath.Dir(path))
			if len(entries) != 1 {
				t.Fatalf("expected only the artifact in dir, got %d entries", len(entries))
			}
		})
	}
}

func TestArtifactRejected(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "old.json")
	if err := WriteArtifact(old, Artifact{Version: ArtifactVersion + 1, Backend: BackendLogReg}); err != nil {
		t.Fatal(err)
	}
	c, _ := New(Options{})
	if err := c.Load(old); !errors.Is(err, ErrArtifactVersion) {
		t.Fatalf("version err = %v", err)
	}

	other := filepath.Join(dir, "bayes.json")
	err := WriteArtifact(other, Artifact{
		Version:  ArtifactVersion,
		Backend:  BackendBayes,
		SavedAt:  time.Now(),
		Examples: DefaultDictionary.SeedExamples(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Load(other); !errors.Is(err, ErrArtifactBackend) {
		t.Fatalf("backend err = %v", err)
	}
	if c.Trained() {
		t.Fatal("rejected artifact must not train the classifier")
	}

	if err := c.Load(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestLoadRefitsOnCorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	err := WriteArtifact(path, Artifact{
		Version:  ArtifactVersion,
		Backend:  BackendLogReg,
		Examples: DefaultDictionary.SeedExamples(),
		State:    []byte(`{"classes":["Еда"],"weights":[],"bias":[]}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	c, _ := New(Options{})
	if err := c.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Classify("хлеб молоко"); got != core.CategoryFood {
		t.Fatalf("Classify = %q", got)
	}
}
