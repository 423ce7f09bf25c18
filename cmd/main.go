package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	amqpAdapter "github.com/YelzhanWeb/cafe/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/cafe/internal/adapter/http"
	"github.com/YelzhanWeb/cafe/internal/adapter/jwt"
	"github.com/YelzhanWeb/cafe/internal/adapter/kafka"
	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/adapter/memory"
	"github.com/YelzhanWeb/cafe/internal/adapter/password"
	"github.com/YelzhanWeb/cafe/internal/adapter/postgres"
	"github.com/YelzhanWeb/cafe/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/cafe/internal/adapter/s3"
	"github.com/YelzhanWeb/cafe/internal/app/auth"
	"github.com/YelzhanWeb/cafe/internal/app/barista"
	"github.com/YelzhanWeb/cafe/internal/app/cart"
	"github.com/YelzhanWeb/cafe/internal/app/catalog"
	"github.com/YelzhanWeb/cafe/internal/app/checkout"
	"github.com/YelzhanWeb/cafe/internal/app/giftcard"
	"github.com/YelzhanWeb/cafe/internal/app/loyalty"
	"github.com/YelzhanWeb/cafe/internal/app/seed"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/app/table"
	"github.com/YelzhanWeb/cafe/internal/app/tracking"
	"github.com/YelzhanWeb/cafe/internal/config"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionIdleTimeout   = 30 * time.Minute
	sessionSweepInterval = time.Minute
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "cafe",
	Short:        "Café ordering backend",
	Long:         `cafe runs the storefront API, barista workers, the tracking service and the notification subscriber of a table-service café.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		storefrontCmd(),
		baristaCmd(),
		trackingCmd(),
		notificationCmd(),
		migrateCmd(),
		seedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// только переменные окружения и значения по умолчанию
		path = ""
	}
	return config.Load(path)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func connectDB(ctx context.Context, cfg *config.Config, lgr logger.Logger) (postgres.DB, error) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
	return db, nil
}

func connectMQ(cfg *config.Config, lgr logger.Logger) (rabbitmq.Connection, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}
	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})
	return conn, nil
}

func newIssuer(cfg *config.Config, lgr logger.Logger, allowEphemeral bool) (*jwt.Issuer, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" && allowEphemeral {
		secret = uuid.NewString()
		lgr.Info("jwt_secret_generated", "No auth.jwt_secret configured, tokens will not survive a restart", "startup", nil)
	}
	return jwt.NewIssuer(secret, cfg.Auth.TokenTTL)
}

// serve runs srv until ctx is cancelled, then drains it.
func serve(ctx context.Context, srv *http.Server, cfg *config.Config, lgr logger.Logger, name string) error {
	errCh := make(chan error, 1)
	go func() {
		lgr.Info("service_started", fmt.Sprintf("%s started on %s", name, srv.Addr), "startup", nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			lgr.Error("server_error", "Server error", "runtime", nil, err)
		}
		return err
	case <-ctx.Done():
	}

	lgr.Info("shutdown_initiated", fmt.Sprintf("Shutting down %s", name), "shutdown", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		return err
	}
	return nil
}

func newServer(cfg *config.Config, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

// Storefront

type storefrontDeps struct {
	products  interfaces.ProductRepository
	users     interfaces.UserRepository
	orders    interfaces.OrderRepository
	giftCards interfaces.GiftCardRepository
	baristas  interfaces.BaristaRepository
	state     interfaces.StateStore
	publisher interfaces.MessagePublisher
	events    interfaces.EventSink
	receipts  interfaces.ReceiptArchive
}

func storefrontCmd() *cobra.Command {
	var (
		port     int
		inMemory bool
	)

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Serve the customer ordering API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.Server.Port
			}
			lgr := logger.New("storefront", debug)
			defer lgr.Sync()

			ctx, stop := signalContext()
			defer stop()

			var deps storefrontDeps
			if inMemory {
				store := memory.NewStore()
				deps = storefrontDeps{
					products:  store.Products(),
					users:     store.Users(),
					orders:    store.Orders(),
					giftCards: store.GiftCards(),
					baristas:  store.Baristas(),
					state:     memory.NewStateStore(),
				}
			} else {
				db, err := connectDB(ctx, cfg, lgr)
				if err != nil {
					return err
				}
				defer db.Close()

				mq, err := connectMQ(cfg, lgr)
				if err != nil {
					return err
				}
				defer mq.Close()

				deps = storefrontDeps{
					products:  postgres.NewProductRepository(db),
					users:     postgres.NewUserRepository(db),
					orders:    postgres.NewOrderRepository(db),
					giftCards: postgres.NewGiftCardRepository(db),
					state:     postgres.NewStateStore(db),
					publisher: rabbitmq.NewPublisher(mq),
				}

				if cfg.Kafka.Enabled {
					sink, err := kafka.Connect(cfg.Kafka.Brokers, cfg.Kafka.Topic)
					if err != nil {
						return err
					}
					defer sink.Close()
					deps.events = sink
				}
				if cfg.S3.Enabled {
					archive, err := s3.Connect(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.Prefix)
					if err != nil {
						return err
					}
					deps.receipts = archive
				}
			}

			return runStorefront(ctx, cfg, lgr, deps, inMemory, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (defaults to server.port)")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep all state in process memory and seed the demo data")
	return cmd
}

func runStorefront(ctx context.Context, cfg *config.Config, lgr logger.Logger, deps storefrontDeps, inMemory bool, port int) error {
	taxRate := decimal.NewFromFloat(cfg.Pricing.TaxRate)
	hasher := password.NewBcryptHasher(bcrypt.DefaultCost)

	issuer, err := newIssuer(cfg, lgr, inMemory)
	if err != nil {
		return err
	}

	products := catalog.NewService(deps.products, lgr, cfg.Catalog.CacheTTL)
	authService := auth.NewService(deps.users, hasher, issuer, lgr)
	orders := checkout.NewService(deps.orders, deps.giftCards, deps.publisher, lgr, taxRate)
	if deps.events != nil {
		orders.WithEventSink(deps.events)
	}
	if deps.receipts != nil {
		orders.WithReceiptArchive(deps.receipts)
	}

	if inMemory {
		if err := seedMenu(ctx, products, cfg.Catalog.SeedFile, false); err != nil {
			return err
		}
		seeder := seed.NewSeeder(deps.users, deps.giftCards, hasher, lgr)
		if _, err := seeder.MockUsers(ctx); err != nil {
			return err
		}
		if _, err := seeder.GiftCards(ctx); err != nil {
			return err
		}
	}

	manager := session.NewManager(deps.state, lgr)
	go manager.RunEviction(ctx, sessionSweepInterval, sessionIdleTimeout)

	storefront := httpAdapter.NewStorefrontHandler(
		manager,
		products,
		cart.NewLedger(lgr, cfg.Ordering.RequireTable),
		table.NewService(lgr),
		giftcard.NewService(deps.giftCards, lgr, taxRate),
		orders,
		lgr,
	)
	account := httpAdapter.NewAccountHandler(manager, authService, loyalty.NewService(deps.users, lgr), lgr)

	// без брокера трекинг обслуживается тем же процессом
	var trackingHandler *httpAdapter.TrackingHandler
	if inMemory {
		trackingHandler = httpAdapter.NewTrackingHandler(tracking.NewService(deps.orders, deps.baristas, nil, lgr), lgr)
	}

	handler := httpAdapter.NewStorefrontRouter(storefront, account, trackingHandler, authService, lgr)
	return serve(ctx, newServer(cfg, port, handler), cfg, lgr, "Storefront")
}

// Barista worker

func baristaCmd() *cobra.Command {
	var (
		name              string
		orderTypes        string
		heartbeatInterval time.Duration
		prefetch          int
	)

	cmd := &cobra.Command{
		Use:   "barista-worker",
		Short: "Prepare queued orders at one barista station",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			lgr := logger.New("barista-worker", debug)
			defer lgr.Sync()

			ctx, stop := signalContext()
			defer stop()

			db, err := connectDB(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer db.Close()

			mq, err := connectMQ(cfg, lgr)
			if err != nil {
				return err
			}
			defer mq.Close()

			service := barista.NewService(
				postgres.NewOrderRepository(db),
				postgres.NewBaristaRepository(db),
				rabbitmq.NewPublisher(mq),
				lgr,
				name,
				strings.Split(orderTypes, ","),
				heartbeatInterval,
			)
			if err := service.Start(ctx); err != nil {
				return fmt.Errorf("failed to start barista %s: %w", name, err)
			}

			lgr.Info("service_started", fmt.Sprintf("Barista %s started", name), "startup", map[string]interface{}{
				"barista_name": name,
				"order_types":  orderTypes,
				"prefetch":     prefetch,
			})

			handler := amqpAdapter.NewOrderHandler(service, lgr)
			consumer := rabbitmq.NewConsumer(mq, lgr, prefetch)
			if err := consumer.ConsumeOrders(ctx, handler.HandleOrder); err != nil && !errors.Is(err, context.Canceled) {
				lgr.Error("consumer_error", "Error consuming orders", "runtime", nil, err)
			}

			lgr.Info("graceful_shutdown", fmt.Sprintf("Shutting down barista %s", name), "shutdown", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return service.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "barista name (unique per station)")
	cmd.Flags().StringVar(&orderTypes, "order-types", "dine_in,takeaway", "comma-separated order types this station prepares")
	cmd.Flags().DurationVar(&heartbeatInterval, "heartbeat-interval", 30*time.Second, "heartbeat interval")
	cmd.Flags().IntVar(&prefetch, "prefetch", 1, "RabbitMQ prefetch count")
	cmd.MarkFlagRequired("name")
	return cmd
}

// Tracking service

func trackingCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "tracking-service",
		Short: "Serve order tracking and the admin dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			lgr := logger.New("tracking-service", debug)
			defer lgr.Sync()

			ctx, stop := signalContext()
			defer stop()

			db, err := connectDB(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer db.Close()

			mq, err := connectMQ(cfg, lgr)
			if err != nil {
				return err
			}
			defer mq.Close()

			issuer, err := newIssuer(cfg, lgr, false)
			if err != nil {
				return err
			}
			authService := auth.NewService(postgres.NewUserRepository(db), password.NewBcryptHasher(bcrypt.DefaultCost), issuer, lgr)

			service := tracking.NewService(
				postgres.NewOrderRepository(db),
				postgres.NewBaristaRepository(db),
				rabbitmq.NewPublisher(mq),
				lgr,
			)
			handler := httpAdapter.NewTrackingRouter(httpAdapter.NewTrackingHandler(service, lgr), authService, lgr)
			return serve(ctx, newServer(cfg, port, handler), cfg, lgr, "Tracking Service")
		},
	}

	cmd.Flags().IntVar(&port, "port", 3002, "HTTP port")
	return cmd
}

// Notification subscriber

func notificationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notification-subscriber",
		Short: "Log order status notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			lgr := logger.New("notification-subscriber", debug)
			defer lgr.Sync()

			ctx, stop := signalContext()
			defer stop()

			mq, err := connectMQ(cfg, lgr)
			if err != nil {
				return err
			}
			defer mq.Close()

			lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

			handler := amqpAdapter.NewNotificationHandler(lgr)
			consumer := rabbitmq.NewConsumer(mq, lgr, 1)
			if err := consumer.ConsumeNotifications(ctx, handler.HandleNotification); err != nil && !errors.Is(err, context.Canceled) {
				lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
				return err
			}

			lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
			return nil
		},
	}
}
