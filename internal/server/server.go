package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/urbanloom/loyalty-backend/internal/config"
	"github.com/urbanloom/loyalty-backend/internal/handler"
	appmw "github.com/urbanloom/loyalty-backend/internal/middleware"
	"github.com/urbanloom/loyalty-backend/internal/model"
	"github.com/urbanloom/loyalty-backend/internal/repository"
	"github.com/urbanloom/loyalty-backend/internal/service"
	"gorm.io/gorm"
)

type Server struct {
	e              *echo.Echo
	ledgerRepo     repository.LedgerRepository
	redemptionRepo repository.RedemptionRepository
	sha            string
	build          string
}

func New(db *gorm.DB, cfg *config.Config, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Service-Token"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			host := u.Hostname()
			if strings.HasSuffix(host, "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))

	policy := service.Policy{
		PointsPerRupee:  cfg.PointsPerRupee,
		MinRedeemPoints: cfg.MinRedeemPoints,
		Tiers:           model.NewTierTable(cfg.GoldThreshold, cfg.PlatinumThreshold),
	}

	ledgerRepo := repository.NewLedgerRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)
	loyaltySvc := service.NewLoyaltyService(ledgerRepo, redemptionRepo, policy)
	loyaltyHandler := handler.NewLoyaltyHandler(loyaltySvc)

	authMw, err := appmw.NewAuthMiddleware(context.Background())
	if err != nil {
		e.Logger.Warnf("firebase auth unavailable, customer routes run unauthenticated: %v", err)
		authMw = nil
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	api := e.Group("/api")
	if authMw != nil {
		api.GET("/me/loyalty", loyaltyHandler.GetMe, authMw.RequireAuth)
		api.GET("/me/loyalty/history", loyaltyHandler.History, authMw.RequireAuth)
		api.GET("/me/loyalty/redemptions", loyaltyHandler.ListRedemptions, authMw.RequireAuth)
		api.POST("/me/loyalty/redeem", loyaltyHandler.Redeem, authMw.RequireAuth)
	} else {
		api.GET("/me/loyalty", loyaltyHandler.GetMe)
		api.GET("/me/loyalty/history", loyaltyHandler.History)
		api.GET("/me/loyalty/redemptions", loyaltyHandler.ListRedemptions)
		api.POST("/me/loyalty/redeem", loyaltyHandler.Redeem)
	}
	api.POST("/loyalty/earn", loyaltyHandler.Earn, appmw.RequireServiceToken(cfg.ServiceToken))

	return &Server{e: e, ledgerRepo: ledgerRepo, redemptionRepo: redemptionRepo, sha: sha, build: buildTime}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// SetDB injects the database once the async connect in cmd/api succeeds.
func (s *Server) SetDB(db *gorm.DB) {
	if s.ledgerRepo != nil {
		s.ledgerRepo.SetDB(db)
	}
	if s.redemptionRepo != nil {
		s.redemptionRepo.SetDB(db)
	}
}
