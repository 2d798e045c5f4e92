// cmd/demo/main.go
//
// A scripted walkthrough of the application against the in-memory store:
// two accounts, a balance-path payment, a second payment made possible by
// the first one's credit, a friendship, and the rendered feed.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"peerpay/internal/domain"
	"peerpay/internal/processor"
	"peerpay/internal/repository/memory"
	"peerpay/internal/service"
	"peerpay/internal/util"
)

func main() {
	util.InitLogger()
	logger := util.GetLogger()

	ctx := context.Background()
	store := memory.NewStore()
	svc := service.NewLedgerService(store, processor.NewStaticCharger(logger), domain.IsValidCreditCardNumber, logger)

	if _, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(5.00), "4111111111111111"); err != nil {
		fail(err)
	}
	if _, err := svc.CreateAccount(ctx, "Carol", decimal.NewFromFloat(10.00), "4242424242424242"); err != nil {
		fail(err)
	}

	// Settles from balance: Bobby holds exactly $5.00.
	if _, err := svc.Pay(ctx, "Bobby", "Carol", decimal.NewFromFloat(5.00), "Coffee"); err != nil {
		fail(err)
	}
	// Carol now holds $15.00, so this settles from balance too.
	if _, err := svc.Pay(ctx, "Carol", "Bobby", decimal.NewFromFloat(15.00), "Lunch"); err != nil {
		fail(err)
	}

	if _, err := svc.AddFriend(ctx, "Bobby", "Carol"); err != nil {
		fail(err)
	}

	activities, err := svc.RetrieveActivity(ctx, "Bobby")
	if err != nil {
		fail(err)
	}
	for _, line := range service.RenderFeed(activities) {
		fmt.Println(line)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
