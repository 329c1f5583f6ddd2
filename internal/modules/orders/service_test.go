package orders

import (
	"context"
	"testing"
	"time"

	"github.com/nexusfarm/nexus/internal/database"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/nexusfarm/nexus/internal/modules/activity"
	testingpkg "github.com/nexusfarm/nexus/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db         *database.DB
	svc        *Service
	bus        *events.Bus
	farmerID   int64
	otherID    int64
	consumerID int64
	productID  int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testingpkg.NewTestDB(t)
	bus := events.NewBus(zerolog.Nop())
	acts := activity.NewRepository(db.X(), zerolog.Nop())

	f := fixture{
		db:         db,
		bus:        bus,
		svc:        NewService(NewRepository(db.X(), zerolog.Nop()), acts, events.NewManager(bus, zerolog.Nop()), zerolog.Nop()),
		farmerID:   testingpkg.InsertUser(t, db, "ravi", "9000000001", "farmer"),
		otherID:    testingpkg.InsertUser(t, db, "asha", "9000000002", "farmer"),
		consumerID: testingpkg.InsertUser(t, db, "mira", "9000000003", "consumer"),
	}
	f.productID = testingpkg.InsertProduct(t, db, f.farmerID, "Tomatoes", 20, 10)
	return f
}

func (f fixture) stock(t *testing.T) int {
	var qty int
	require.NoError(t, f.db.X().Get(&qty, `SELECT quantity FROM products WHERE id = ?`, f.productID))
	return qty
}

func TestPlace(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ch, cancel := f.bus.Subscribe(nil, 4)
	defer cancel()

	o, err := f.svc.Place(ctx, f.consumerID, f.productID, 4)
	require.NoError(t, err)
	assert.NotEmpty(t, o.Reference)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, f.farmerID, o.FarmerID)
	assert.Equal(t, 10, f.stock(t), "placing does not deduct stock")

	select {
	case e := <-ch:
		assert.Equal(t, events.OrderPlaced, e.Type)
	case <-time.After(time.Second):
		t.Fatal("no event emitted")
	}
}

func TestPlace_Errors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Place(ctx, f.consumerID, f.productID, 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = f.svc.Place(ctx, f.consumerID, 999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.svc.Place(ctx, f.consumerID, f.productID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestManage_AcceptDeductsStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Place(ctx, f.consumerID, f.productID, 4)
	require.NoError(t, err)

	accepted, err := f.svc.Manage(ctx, f.farmerID, o.ID, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAccepted, accepted.Status)
	assert.Equal(t, 6, f.stock(t))

	_, err = f.svc.Manage(ctx, f.farmerID, o.ID, ActionReject)
	assert.ErrorIs(t, err, ErrNotPending)

	n, err := f.svc.CountAcceptedByFarmer(ctx, f.farmerID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sales, err := f.svc.AcceptedSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SaleLine{{Quantity: 4, Price: 20}}, sales)
}

func TestManage_AcceptFailsWhenStockRanOut(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Place(ctx, f.consumerID, f.productID, 7)
	require.NoError(t, err)
	second, err := f.svc.Place(ctx, f.consumerID, f.productID, 7)
	require.NoError(t, err)

	_, err = f.svc.Manage(ctx, f.farmerID, first.ID, ActionAccept)
	require.NoError(t, err)

	_, err = f.svc.Manage(ctx, f.farmerID, second.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, f.stock(t))

	// the failed accept rolled back; the order can still be rejected
	rejected, err := f.svc.Manage(ctx, f.farmerID, second.ID, ActionReject)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRejected, rejected.Status)
	assert.Equal(t, 3, f.stock(t))
}

func TestManage_Guards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Place(ctx, f.consumerID, f.productID, 1)
	require.NoError(t, err)

	_, err = f.svc.Manage(ctx, f.otherID, o.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.svc.Manage(ctx, f.farmerID, o.ID, "ship")
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = f.svc.Manage(ctx, f.farmerID, 12345, ActionAccept)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Place(ctx, f.consumerID, f.productID, 1)
	require.NoError(t, err)
	_, err = f.svc.Place(ctx, f.consumerID, f.productID, 2)
	require.NoError(t, err)

	byFarmer, err := f.svc.ListFor(ctx, domain.RoleFarmer, f.farmerID)
	require.NoError(t, err)
	require.Len(t, byFarmer, 2)
	assert.Equal(t, 2, byFarmer[0].Quantity, "newest first")
	assert.Equal(t, "mira", byFarmer[0].ConsumerName)
	assert.Equal(t, "Tomatoes", byFarmer[0].ProductName)

	other, err := f.svc.ListFor(ctx, domain.RoleFarmer, f.otherID)
	require.NoError(t, err)
	assert.Empty(t, other)

	byConsumer, err := f.svc.ListFor(ctx, domain.RoleConsumer, f.consumerID)
	require.NoError(t, err)
	assert.Len(t, byConsumer, 2)

	all, err := f.svc.ListFor(ctx, domain.RoleAdmin, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
