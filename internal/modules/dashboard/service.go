// Package dashboard assembles the role-specific overview pages.
package dashboard

import (
	"context"
	"fmt"

	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/forecast"
	"github.com/nexusfarm/nexus/internal/modules/activity"
	"github.com/nexusfarm/nexus/internal/modules/forecasting"
	"github.com/nexusfarm/nexus/internal/modules/orders"
	"github.com/nexusfarm/nexus/internal/modules/products"
	"github.com/nexusfarm/nexus/internal/modules/users"
	"github.com/nexusfarm/nexus/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Totals are the admin headline figures
type Totals struct {
	SalesKg   int64  `json:"total_sales_kg"`
	Revenue   string `json:"total_revenue"`
	Inventory int64  `json:"total_inventory"`
}

// Header is embedded in every dashboard
type Header struct {
	forecasting.Clock
	Forecasts []forecast.Result `json:"ml_forecasts"`
}

// FarmerView is the farmer dashboard
type FarmerView struct {
	Header
	Products      []products.Product `json:"products"`
	Orders        []orders.Order     `json:"orders"`
	Sales         int                `json:"sales"`
	ForecastCheck *forecasting.Check `json:"forecast_result,omitempty"`
}

// ConsumerView is the consumer dashboard
type ConsumerView struct {
	Header
	Products []products.Product `json:"products"`
	Orders   []orders.Order     `json:"orders"`
	Query    string             `json:"query"`
}

// AdminView is the admin dashboard
type AdminView struct {
	Header
	Users    []users.User       `json:"users"`
	Products []products.Product `json:"products"`
	Orders   []orders.Order     `json:"orders"`
	Logs     []activity.Log     `json:"logs"`
	Totals   Totals             `json:"totals"`
}

// Service reads from every module; it owns no data.
type Service struct {
	users     *users.Service
	products  *products.Service
	orders    *orders.Service
	activity  *activity.Repository
	forecasts *forecasting.Service
	log       zerolog.Logger
}

// NewService creates a dashboard service
func NewService(
	usersService *users.Service,
	productsService *products.Service,
	ordersService *orders.Service,
	activityRepo *activity.Repository,
	forecasts *forecasting.Service,
	log zerolog.Logger,
) *Service {
	return &Service{
		users:     usersService,
		products:  productsService,
		orders:    ordersService,
		activity:  activityRepo,
		forecasts: forecasts,
		log:       log.With().Str("service", "dashboard").Logger(),
	}
}

func (s *Service) header() Header {
	return Header{
		Clock:     forecasting.NewClock(s.forecasts.Now()),
		Forecasts: s.forecasts.Today(""),
	}
}

// Farmer builds the farmer dashboard. checkProduct, when not empty, adds a forecast check.
func (s *Service) Farmer(ctx context.Context, farmerID int64, checkProduct string) (*FarmerView, error) {
	list, err := s.products.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list farmer products: %w", err)
	}
	incoming, err := s.orders.ListFor(ctx, domain.RoleFarmer, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming orders: %w", err)
	}
	sales, err := s.orders.CountAcceptedByFarmer(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	view := &FarmerView{
		Header:   s.header(),
		Products: list,
		Orders:   incoming,
		Sales:    sales,
	}
	if checkProduct != "" {
		view.ForecastCheck = s.forecasts.CheckProduct(checkProduct)
	}
	return view, nil
}

// Consumer builds the consumer dashboard, filtering products by q
func (s *Service) Consumer(ctx context.Context, consumerID int64, q string) (*ConsumerView, error) {
	list, err := s.products.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	placed, err := s.orders.ListFor(ctx, domain.RoleConsumer, consumerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return &ConsumerView{
		Header:   s.header(),
		Products: list,
		Orders:   placed,
		Query:    q,
	}, nil
}

// Admin builds the admin dashboard
func (s *Service) Admin(ctx context.Context) (*AdminView, error) {
	defer utils.OperationTimer("admin_dashboard", s.log)()

	allUsers, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	allProducts, err := s.products.Search(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	allOrders, err := s.orders.ListFor(ctx, domain.RoleAdmin, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	logs, err := s.activity.Recent(ctx, activity.DefaultRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	totals, err := s.Totals(ctx)
	if err != nil {
		return nil, err
	}

	return &AdminView{
		Header:   s.header(),
		Users:    allUsers,
		Products: allProducts,
		Orders:   allOrders,
		Logs:     logs,
		Totals:   totals,
	}, nil
}

// Totals computes sales volume and revenue over accepted orders plus current inventory.
func (s *Service) Totals(ctx context.Context) (Totals, error) {
	lines, err := s.orders.AcceptedSales(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to load accepted sales: %w", err)
	}
	inventory, err := s.products.TotalInventory(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to sum inventory: %w", err)
	}

	var kg int64
	revenue := decimal.Zero
	for _, l := range lines {
		kg += int64(l.Quantity)
		revenue = revenue.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	return Totals{
		SalesKg:   kg,
		Revenue:   revenue.StringFixed(2),
		Inventory: inventory,
	}, nil
}
