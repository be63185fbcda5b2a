// Command paymentctl is an operator tool around the payment queue and the
// development database.
//
//	paymentctl settle -booking <id> [-amount 15000] [-ref cash-42]
//	paymentctl seed
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/campus-marketplace/internal/config"
	"github.com/iliyamo/campus-marketplace/internal/database"
	"github.com/iliyamo/campus-marketplace/internal/model"
	"github.com/iliyamo/campus-marketplace/internal/queue"
	"github.com/iliyamo/campus-marketplace/internal/repository"
)

func main() {
	config.LoadDotEnv()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		logger.Fatal().Msg("usage: paymentctl settle|seed [flags]")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "settle":
		err = settle(ctx, os.Args[2:], logger)
	case "seed":
		err = seed(ctx, logger)
	default:
		logger.Fatal().Str("command", os.Args[1]).Msg("unknown command")
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", os.Args[1]).Msg("failed")
	}
}

func settle(ctx context.Context, args []string, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("settle", flag.ExitOnError)
	id := fs.String("booking", "", "booking id")
	amount := fs.Int64("amount", 0, "amount paid")
	ref := fs.String("ref", "", "payment reference")
	url := fs.String("url", firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")), "broker url")
	name := fs.String("queue", os.Getenv("PAYMENT_QUEUE"), "queue name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ev := queue.PaymentSettledEvent{BookingID: *id, Amount: *amount, Reference: *ref}
	if err := queue.NewPublisher(*url, *name).PublishPaymentSettled(ctx, ev); err != nil {
		return err
	}
	logger.Info().Str("booking_id", *id).Int64("amount", *amount).Msg("settlement published")
	return nil
}

// seed writes a small fixture set: one owner per service type, one student
// and a listing of each type.
func seed(ctx context.Context, logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DB.Driver); err != nil {
		return err
	}

	users := repository.NewUserRepo(db)
	for _, u := range []model.UserSummary{
		{ID: "student-1", Username: "asha", Email: "asha@campus.test"},
		{ID: "owner-hostel", Username: "north_hall", Email: "hostel@campus.test"},
		{ID: "owner-mess", Username: "green_mess", Email: "mess@campus.test"},
		{ID: "owner-gym", Username: "iron_gym", Email: "gym@campus.test"},
	} {
		if err := users.Upsert(ctx, u); err != nil {
			return err
		}
	}

	listings := repository.NewListingRepo(db)
	for _, l := range []model.ListingSnapshot{
		{ID: "hostel-1", OwnerID: "owner-hostel", Type: model.ServiceHostel, Name: "North Hall", Price: 5000, Capacity: 120, Address: "North Campus"},
		{ID: "mess-1", OwnerID: "owner-mess", Type: model.ServiceMess, Name: "Green Mess", Price: 2000, Capacity: 60},
		{ID: "gym-1", OwnerID: "owner-gym", Type: model.ServiceGym, Name: "Iron Gym", Price: 1500, Capacity: 40},
	} {
		if err := listings.Upsert(ctx, l); err != nil {
			return err
		}
	}
	logger.Info().Str("driver", cfg.DB.Driver).Msg("seeded")
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
