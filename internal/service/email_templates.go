package service

import (
	"fmt"

	"github.com/stakepact/stakepact/internal/model"
)

func refereeRequestTemplate(goal *model.Goal, appName string) (string, string) {
	subject := fmt.Sprintf("You've been named a referee on %s", appName)
	body := fmt.Sprintf(`Someone you know has staked $%.2f on a goal and named you their referee:

"%s" by %s

Their deadline is %s. Once it passes, please tell us whether they pulled it off. If you say no - or don't answer at all - their card gets charged.

Best,
The %s Team`, goal.StakeUSD, goal.Description, goal.UserEmail, goal.DeadlineDate, appName)

	return subject, body
}

func chargeNoticeTemplate(goal *model.Goal, amountCents int64, appName string) (string, string) {
	subject := fmt.Sprintf("Your stake was charged on %s", appName)
	body := fmt.Sprintf(`Your goal didn't work out this time:

"%s"

As agreed, your saved card was charged $%.2f.

Better luck with the next one.

Best,
The %s Team`, goal.Description, float64(amountCents)/100.0, appName)

	return subject, body
}
