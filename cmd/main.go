package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_booking"
	checkExpiredContractsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/check_expired_contracts"
	checkExpiredInvoicesHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/check_expired_invoices"
	clearBookingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/clear_bookings"
	completeBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/complete_booking"
	createBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_booking"
	createConsultationHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_consultation"
	createContractHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_contract"
	createInvoiceHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_invoice"
	getAvailableSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_booking"
	getConsultationHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_consultation"
	getContractHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_contract"
	getInvoiceHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_invoice"
	invoicePaymentLinkHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/invoice_payment_link"
	listBookingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_bookings"
	listContractInvoicesHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_contract_invoices"
	markInvoicePaidHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/mark_invoice_paid"
	recordDecisionHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/record_decision"
	rescheduleBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/reschedule_booking"
	reserveSlotHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/reserve_slot"
	signContractHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/sign_contract"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	consultationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/consultation"
	contractRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/contract"
	invoiceRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/invoice"
	reservationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/paymentgateway"
	bookingsService "github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
	consultationsService "github.com/m04kA/SMC-AppointmentService/internal/service/consultations"
	contractsService "github.com/m04kA/SMC-AppointmentService/internal/service/contracts"
	invoicesService "github.com/m04kA/SMC-AppointmentService/internal/service/invoices"
	createBookingUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	rescheduleBookingUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/reschedule_booking"
	reserveSlotUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/reserve_slot"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем клиент платежного шлюза
	gatewayClient := paymentgateway.NewClient(
		cfg.PaymentGateway.URL,
		cfg.PaymentGateway.APIKey,
		time.Duration(cfg.PaymentGateway.Timeout)*time.Second,
		log,
	)
	log.Info("Payment gateway client initialized (url=%s timeout=%ds)",
		cfg.PaymentGateway.URL, cfg.PaymentGateway.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository      *bookingRepo.Repository
		reservationRepository  *reservationRepo.Repository
		consultationRepository *consultationRepo.Repository
		contractRepository     *contractRepo.Repository
		invoiceRepository      *invoiceRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases и сервисах)
	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		reservationRepository = reservationRepo.NewRepository(wrappedDB)
		consultationRepository = consultationRepo.NewRepository(wrappedDB)
		contractRepository = contractRepo.NewRepository(wrappedDB)
		invoiceRepository = invoiceRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		reservationRepository = reservationRepo.NewRepository(db)
		consultationRepository = consultationRepo.NewRepository(db)
		contractRepository = contractRepo.NewRepository(db)
		invoiceRepository = invoiceRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Расписание рабочего дня для сетки слотов
	openTime, err := types.NewTimeStringFromString(cfg.Booking.OpenTime)
	if err != nil {
		log.Fatal("Invalid booking.open_time: %v", err)
	}
	closeTime, err := types.NewTimeStringFromString(cfg.Booking.CloseTime)
	if err != nil {
		log.Fatal("Invalid booking.close_time: %v", err)
	}
	closedWeekdays := make(map[time.Weekday]bool)
	for _, name := range cfg.Booking.ClosedWeekdays {
		day, err := parseWeekday(name)
		if err != nil {
			log.Fatal("Invalid booking.closed_weekdays entry: %v", err)
		}
		closedWeekdays[day] = true
	}
	schedule := getAvailableSlotsUC.Schedule{
		OpenTime:       openTime,
		CloseTime:      closeTime,
		SlotDuration:   cfg.Booking.SlotDurationMinutes,
		ClosedWeekdays: closedWeekdays,
	}

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		txMgr,
		domain.NewRefundPolicy(cfg.Booking.RefundCutoffHours),
		log,
	)
	consultationSvc := consultationsService.NewService(
		consultationRepository,
		log,
	)
	contractSvc := contractsService.NewService(
		consultationRepository,
		contractRepository,
		invoiceRepository,
		txMgr,
		cfg.Booking.ContractSigningDays,
		cfg.Booking.InvoiceDueDays,
		log,
	)
	invoiceSvc := invoicesService.NewService(
		invoiceRepository,
		contractRepository,
		gatewayClient,
		txMgr,
		cfg.Booking.InvoiceDueDays,
		cfg.PaymentGateway.CallbackURL,
		log,
	)

	// Инициализируем use cases
	reserveSlotUseCase := reserveSlotUC.NewUseCase(
		reservationRepository,
		bookingRepository,
		txMgr,
		cfg.Booking.ReservationTTLMinutes,
		log,
	)
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		reservationRepository,
		gatewayClient,
		txMgr,
		log,
	)
	rescheduleBookingUseCase := rescheduleBookingUC.NewUseCase(
		bookingRepository,
		txMgr,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		bookingRepository,
		reservationRepository,
		schedule,
		log,
	)

	// Инициализируем handlers
	reserveSlot := reserveSlotHandler.NewHandler(reserveSlotUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	completeBooking := completeBookingHandler.NewHandler(bookingSvc, log)
	clearBookings := clearBookingsHandler.NewHandler(bookingSvc, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(rescheduleBookingUseCase, log)
	createConsultation := createConsultationHandler.NewHandler(consultationSvc, log)
	getConsultation := getConsultationHandler.NewHandler(consultationSvc, log)
	recordDecision := recordDecisionHandler.NewHandler(consultationSvc, log)
	createContract := createContractHandler.NewHandler(contractSvc, log)
	getContract := getContractHandler.NewHandler(contractSvc, log)
	signContract := signContractHandler.NewHandler(contractSvc, log)
	checkExpiredContracts := checkExpiredContractsHandler.NewHandler(contractSvc, log)
	createInvoice := createInvoiceHandler.NewHandler(invoiceSvc, log)
	getInvoice := getInvoiceHandler.NewHandler(invoiceSvc, log)
	listContractInvoices := listContractInvoicesHandler.NewHandler(invoiceSvc, log)
	invoicePaymentLink := invoicePaymentLinkHandler.NewHandler(invoiceSvc, log)
	markInvoicePaid := markInvoicePaidHandler.NewHandler(invoiceSvc, log)
	checkExpiredInvoices := checkExpiredInvoicesHandler.NewHandler(invoiceSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Сетка доступных слотов на дату
	api.HandleFunc("/slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Удержание слота до оплаты
	api.HandleFunc("/slots/reserve", reserveSlot.Handle).Methods(http.MethodPost)

	// Webhook платежного шлюза - создание подтвержденной записи
	api.HandleFunc("/payments/webhook", createBooking.Handle).Methods(http.MethodPost)

	// Заявка на консультацию
	api.HandleFunc("/consultations", createConsultation.Handle).Methods(http.MethodPost)

	// Sweep просроченных договоров: админский маршрут, но регистрируется
	// до /contracts/{token}, иначе его перехватит wildcard токена
	api.Handle("/contracts/check-expired",
		middleware.Auth(cfg.Auth.AdminToken)(http.HandlerFunc(checkExpiredContracts.Handle))).
		Methods(http.MethodGet)

	// Просмотр и подписание договора по токену из письма
	api.HandleFunc("/contracts/{token}", getContract.Handle).Methods(http.MethodGet)
	api.HandleFunc("/contracts/{token}/sign", signContract.Handle).Methods(http.MethodPost)

	// Оплата счета клиентом: переход на checkout шлюза и webhook оплаты
	api.HandleFunc("/invoices/{invoiceId}/payment-link", invoicePaymentLink.Handle).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{invoiceId}/pay", markInvoicePaid.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-Admin-Token header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(cfg.Auth.AdminToken))

	// --- Записи ---
	protected.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings", clearBookings.Handle).Methods(http.MethodDelete)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/reschedule", rescheduleBooking.Handle).Methods(http.MethodPatch)

	// --- Консультации ---
	protected.HandleFunc("/consultations/{consultationId}", getConsultation.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/consultations/{consultationId}/decision", recordDecision.Handle).Methods(http.MethodPatch)

	// --- Договоры ---
	protected.HandleFunc("/contracts", createContract.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/contracts/{contractId}/invoices", listContractInvoices.Handle).Methods(http.MethodGet)

	// --- Счета ---
	protected.HandleFunc("/invoices", createInvoice.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/invoices/check-expired", checkExpiredInvoices.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/invoices/{invoiceId}", getInvoice.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// parseWeekday конвертирует название дня недели из конфига
func parseWeekday(name string) (time.Weekday, error) {
	days := map[string]time.Weekday{
		"Sunday":    time.Sunday,
		"Monday":    time.Monday,
		"Tuesday":   time.Tuesday,
		"Wednesday": time.Wednesday,
		"Thursday":  time.Thursday,
		"Friday":    time.Friday,
		"Saturday":  time.Saturday,
	}
	day, ok := days[name]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return day, nil
}
