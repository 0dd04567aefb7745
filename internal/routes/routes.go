// Package routes defines the API routing configuration.
// It wires repositories into services and handlers and groups the
// endpoints by audience: provider callbacks, player wallet, back office.
package routes

import (
	"moongamble/internal/config"
	"moongamble/internal/handlers"
	"moongamble/internal/middleware"
	"moongamble/internal/repositories"
	"moongamble/internal/services/idempotency"
	"moongamble/internal/services/ledger"
	"moongamble/internal/services/provider"
	"moongamble/internal/services/reconciler"
	"moongamble/internal/services/signature"
	"moongamble/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes. The repository and the
// idempotency store are injected so main can pick postgres/redis or the
// in-memory fallbacks.
func SetupRoutes(app *fiber.App, repo repositories.LedgerRepository, store idempotency.Store) {
	merchantKey := config.GetEnv("MERCHANT_KEY", "")

	// Initialize services in dependency order
	ledgerService := ledger.NewService(repo, &ledger.NoopMetricsCollector{})
	reconcilerService := reconciler.NewService(store, ledgerService)
	walletService := wallet.NewService(repo, ledgerService, wallet.Config{})

	verifier := signature.NewVerifier(merchantKey)
	providerClient := provider.NewClient(provider.Config{
		BaseURL:     config.GetEnv("PROVIDER_BASE_URL", ""),
		MerchantID:  config.GetEnv("MERCHANT_ID", ""),
		MerchantKey: merchantKey,
	})

	// Initialize handlers
	providerHandler := handlers.NewProviderHandler(reconcilerService, verifier, providerClient)
	walletHandler := handlers.NewWalletHandler(walletService)
	adminHandler := handlers.NewAdminHandler(walletService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Provider callbacks are authenticated by HMAC signature, not JWT
	providers := api.Group("/providers")
	providers.Post("/callback", providerHandler.HandleCallback)
	providers.Post("/self-validate", providerHandler.SelfValidate)

	// Player wallet routes
	walletGroup := api.Group("/wallet", middleware.Auth())
	walletGroup.Get("/balance", walletHandler.Balance)
	walletGroup.Get("/history", walletHandler.History)
	walletGroup.Post("/deposit", walletHandler.Deposit)
	walletGroup.Post("/bonus-deposit", walletHandler.BonusDeposit)
	walletGroup.Post("/withdraw", walletHandler.Withdraw)
	walletGroup.Get("/withdrawals/last", walletHandler.LastWithdrawal)
	walletGroup.Post("/bonus/earn", walletHandler.EarnBonus)
	walletGroup.Get("/bonus/last-earn", walletHandler.LastBonusEarn)
	walletGroup.Post("/promo-code", walletHandler.ApplyPromoCode)

	// Back-office withdrawal review
	admin := api.Group("/admin", middleware.Auth(), middleware.AdminOnly())
	admin.Get("/withdrawals", adminHandler.PendingWithdrawals)
	admin.Post("/withdrawals/:id/confirm", adminHandler.ConfirmWithdrawal)
	admin.Post("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)
}
