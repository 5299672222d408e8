// README: Entry point; loads config, wires services, starts HTTP server and background schedulers.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pepemlv/partysavingrental/internal/ai"
	"github.com/pepemlv/partysavingrental/internal/config"
	httptransport "github.com/pepemlv/partysavingrental/internal/http"
	"github.com/pepemlv/partysavingrental/internal/infra"
	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/maps"
	"github.com/pepemlv/partysavingrental/internal/modules/aiusage"
	"github.com/pepemlv/partysavingrental/internal/modules/booking"
	"github.com/pepemlv/partysavingrental/internal/modules/catalog"
	"github.com/pepemlv/partysavingrental/internal/modules/location"
	"github.com/pepemlv/partysavingrental/internal/modules/mobilepay"
	"github.com/pepemlv/partysavingrental/internal/modules/order"
	"github.com/pepemlv/partysavingrental/internal/modules/payment"
	"github.com/pepemlv/partysavingrental/internal/notify"
	"github.com/pepemlv/partysavingrental/internal/scheduler"
	"github.com/pepemlv/partysavingrental/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}
	fs, err := infra.NewFirestore(ctx, app)
	if err != nil {
		log.Fatalf("firestore init: %v", err)
	}
	defer fs.Close()

	if err := infra.RunMigrations(cfg.DB.DSN, cfg.DB.MigrationsPath); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		log.Fatal(err)
	}
	defer redisClient.Close()

	outbound := infra.NewHTTPClient(time.Duration(cfg.Geocoder.TimeoutSeconds) * time.Second)

	var geocoder location.Geocoder
	switch cfg.Geocoder.Provider {
	case "google":
		g, err := maps.NewGeocodeService(cfg.Geocoder.GoogleAPIKey, outbound)
		if err != nil {
			log.Fatalf("google geocoder: %v", err)
		}
		geocoder = g
	default:
		geocoder = location.NewNominatimGeocoder(outbound, cfg.Geocoder.NominatimURL, cfg.Geocoder.UserAgent)
	}
	geocoder = location.NewCachedGeocoder(geocoder, redisClient, cfg.GeocodeCacheTTL())

	catalogSvc := catalog.NewService(catalog.NewStore(fs), catalog.NewGeoIndex(redisClient))
	if err := catalogSvc.RebuildIndex(ctx); err != nil {
		logger.Warn("city index rebuild failed", "error", err)
	}

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.Mail.SendGridKey != "" {
		mailer = notify.NewSendGridMailer(cfg.Mail.SendGridKey, cfg.Mail.FromEmail, cfg.Mail.FromName)
	}
	notifiers := order.Notifiers{order.NewReceiptNotifier(mailer)}
	if cfg.Firebase.AdminTopic != "" {
		pusher, err := notify.NewFirebasePusher(ctx, app, cfg.Firebase.AdminTopic)
		if err != nil {
			log.Fatal(err)
		}
		notifiers = append(notifiers, order.NewAdminAlert(pusher))
	}
	orderSvc := order.NewService(order.NewStore(fs), notifiers, cfg.Pricing.TaxRate)

	bookingSvc := booking.NewService(
		booking.NewManager(cfg.SessionTTL()),
		catalogSvc,
		geocoder,
		orderSvc,
		orderSvc,
		booking.Options{TaxRate: cfg.Pricing.TaxRate, FeeWarningThreshold: cfg.Pricing.FeeWarningThreshold},
	)

	deps := httptransport.RouterDeps{
		Catalog: catalogSvc,
		Booking: bookingSvc,
		Orders:  orderSvc,
		Mobile: mobilepay.NewService(
			mobilepay.NewKelpayClient(cfg.Kelpay, infra.NewHTTPClient(time.Duration(cfg.Kelpay.TimeoutSeconds)*time.Second)),
			mobilepay.NewStore(dbPool),
		),
		AIQuota: aiusage.NewService(aiusage.NewStore(dbPool)),
	}

	paymentClient := infra.NewHTTPClient(30 * time.Second)
	if cfg.Stripe.SecretKey != "" {
		intents := payment.NewStripeIntents(cfg.Stripe.SecretKey, paymentClient)
		deps.Card = payment.NewCardService(intents, orderSvc, cfg.Stripe.Currency, cfg.Stripe.WebhookSecret)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, card payments disabled")
	}
	if cfg.PayPal.ClientID != "" && cfg.PayPal.Secret != "" {
		deps.PayPal = payment.NewPayPalService(cfg.PayPal.BaseURL, cfg.PayPal.ClientID, cfg.PayPal.Secret, paymentClient, orderSvc)
	} else {
		logger.Warn("PayPal credentials not set, PayPal payments disabled")
	}

	switch cfg.Admin.AuthMode {
	case "firebase":
		verifier, err := infra.NewFirebaseVerifier(ctx, app)
		if err != nil {
			log.Fatalf("firebase auth: %v", err)
		}
		deps.Verifier = verifier
	default:
		tokens := security.NewTokenManager(cfg.Admin.JWTSecret, time.Duration(cfg.Admin.TokenTTLMinutes)*time.Minute)
		deps.Verifier = tokens
		deps.Auth = security.NewAdminAuthenticator(cfg.Admin.Username, cfg.Admin.PasswordHash, tokens)
	}

	if cfg.AI.GeminiKey != "" {
		provider, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Fatalf("gemini init: %v", err)
		}
		defer provider.Close()
		deps.Copywriter = provider
	}

	jobs, err := scheduler.New(cfg.Scheduler, orderSvc, bookingSvc)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	jobs.Start()
	defer jobs.Stop()

	server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.NewRouter(deps))
	if err := server.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
