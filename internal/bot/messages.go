package bot

const (
	msgHelp = `Я записываю расходы. Просто напишите сумму и описание:
  хлеб 100
  1500тг бензин
  такси 2 500 руб

Команды:
/report [ГГГГ-ММ] - отчёт за месяц
/categories - список категорий
/fix <категория> - исправить категорию последнего расхода
/undo - удалить последний расход
/budget <категория> <сумма> - месячный бюджет
/budgets - бюджеты и траты
/budget_rm <категория> - удалить бюджет
/remind <daily|weekly|monthly|yearly> [час] <текст> - напоминание
/reminders - ваши напоминания
/remind_rm <номер> - удалить напоминание
/group_new <название> - создать семейную группу
/group_join <код> - вступить в группу
/group_leave - выйти из группы
/group - участники группы`

	msgWelcome        = "Привет! Я Копилка, бот для учёта расходов.\n\n"
	msgUnknownCommand = "Неизвестная команда. Список команд: /help"
	msgRateLimited    = "Слишком много сообщений. Подождите минуту и попробуйте снова."
	msgInternalError  = "Что-то пошло не так. Попробуйте ещё раз позже."
	msgAmountNotFound = "Не нашёл сумму. Попробуйте так: «хлеб 100» или «1500тг бензин»."
	msgNoExpense      = "Пока нет расходов, которые можно изменить."
	msgNotInGroup     = "Вы не состоите в группе. Создайте её: /group_new <название>"
	msgAlreadyInGroup = "Вы уже в группе. Сначала выйдите: /group_leave"
	msgInvalidInvite  = "Группа с таким кодом не найдена."
	msgNoBudgets      = "Бюджетов пока нет. Добавьте: /budget еда 50000"
	msgNoReminders    = "Напоминаний пока нет. Добавьте: /remind monthly 9 оплатить интернет"

	usageFix       = "Укажите категорию: /fix <категория>"
	usageReport    = "Формат: /report или /report 2024-03"
	usageBudget    = "Формат: /budget <категория> <сумма>, например /budget еда 50000"
	usageBudgetRm  = "Формат: /budget_rm <категория>"
	usageRemind    = "Формат: /remind <daily|weekly|monthly|yearly> [час] <текст>, например /remind monthly 10 оплатить аренду"
	usageRemindRm  = "Формат: /remind_rm <номер>"
	usageGroupNew  = "Формат: /group_new <название>"
	usageGroupJoin = "Формат: /group_join <код>"
)
