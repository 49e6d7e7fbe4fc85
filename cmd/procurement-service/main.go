package main

import (
	"fmt"
	"os"

	"github.com/qurylys/procurement/internal/auth"
	"github.com/qurylys/procurement/internal/config"
	"github.com/qurylys/procurement/internal/db"
	"github.com/qurylys/procurement/internal/excel"
	httphandler "github.com/qurylys/procurement/internal/http"
	"github.com/qurylys/procurement/internal/http/middleware"
	"github.com/qurylys/procurement/internal/logger"
	"github.com/qurylys/procurement/internal/pdf"
	"github.com/qurylys/procurement/internal/repository"
	"github.com/qurylys/procurement/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	excelGenerator := excel.NewGenerator()

	notifier := service.NewLogNotifier(log)

	quoteRepo := repository.NewQuoteRepository(database)
	proposalRepo := repository.NewProposalRepository(database)
	contractRepo := repository.NewContractRepository(database)
	escrowRepo := repository.NewEscrowRepository(database)
	materialRepo := repository.NewMaterialRepository(database)

	quoteService := service.NewQuoteService(quoteRepo, notifier)
	proposalService := service.NewProposalService(proposalRepo, notifier, cfg.Proposals.MaxRevisions)
	contractService := service.NewContractService(contractRepo, pdfGenerator, notifier)
	escrowService := service.NewEscrowService(escrowRepo, log)
	materialService := service.NewMaterialService(materialRepo, excelGenerator, notifier)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(quoteService, proposalService, contractService, escrowService, materialService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting procurement service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
