package products

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nexusfarm/nexus/internal/modules/activity"
	testingpkg "github.com/nexusfarm/nexus/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	images   *ImageStore
	acts     *activity.Repository
	farmerID int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testingpkg.NewTestDB(t)
	images, err := NewImageStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	images.now = func() time.Time { return time.Unix(1700000000, 0) }

	acts := activity.NewRepository(db.X(), zerolog.Nop())
	return fixture{
		svc:      NewService(NewRepository(db.X(), zerolog.Nop()), images, acts, nil, zerolog.Nop()),
		images:   images,
		acts:     acts,
		farmerID: testingpkg.InsertUser(t, db, "ravi", "9000000001", "farmer"),
	}
}

func TestService_CreateDefaults(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.farmerID, CreateRequest{Name: " Okra ", Price: 40, Quantity: 25}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Okra", p.Name)
	assert.Equal(t, DefaultLocation, p.Location)
	assert.Equal(t, DefaultImage, p.Image)

	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "ravi", got.FarmerName)
	assert.Equal(t, 25, got.Quantity)

	logs, err := f.acts.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Added product Okra", logs[0].Action)
}

func TestService_CreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for name, req := range map[string]CreateRequest{
		"empty name":        {Name: " ", Price: 10, Quantity: 1},
		"zero price":        {Name: "Okra", Price: 0, Quantity: 1},
		"negative price":    {Name: "Okra", Price: -3, Quantity: 1},
		"negative quantity": {Name: "Okra", Price: 10, Quantity: -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.farmerID, req, nil)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestService_CreateWithImage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.farmerID, CreateRequest{Name: "Tomatoes", Price: 20, Quantity: 5},
		&Upload{Filename: "fresh tomato.JPG", Body: strings.NewReader("img")})
	require.NoError(t, err)
	assert.Equal(t, "1700000000_fresh_tomato.JPG", p.Image)

	data, err := os.ReadFile(filepath.Join(f.images.Dir(), p.Image))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	p, err = f.svc.Create(ctx, f.farmerID, CreateRequest{Name: "Tomatoes", Price: 20, Quantity: 5},
		&Upload{Filename: "script.sh", Body: strings.NewReader("#!")})
	require.NoError(t, err)
	assert.Equal(t, DefaultImage, p.Image)
	_, err = os.Stat(filepath.Join(f.images.Dir(), "1700000000_script.sh"))
	assert.True(t, os.IsNotExist(err))
}

func TestService_CreateWithoutImageStore(t *testing.T) {
	db := testingpkg.NewTestDB(t)
	svc := NewService(NewRepository(db.X(), zerolog.Nop()), nil, nil, nil, zerolog.Nop())
	farmerID := testingpkg.InsertUser(t, db, "mina", "9000000002", "farmer")

	p, err := svc.Create(context.Background(), farmerID, CreateRequest{Name: "Okra", Price: 40, Quantity: 2},
		&Upload{Filename: "okra.png", Body: strings.NewReader("img")})
	require.NoError(t, err)
	assert.Equal(t, DefaultImage, p.Image)
}

func TestService_Search(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, req := range []CreateRequest{
		{Name: "Tomatoes", Price: 20, Quantity: 5, Category: "Vegetables", Location: "Nadia"},
		{Name: "Mango", Price: 80, Quantity: 5, Category: "Fruit", Location: "Malda"},
		{Name: "Rice", Price: 45, Quantity: 5, Category: "Grain", Location: "Bardhaman"},
	} {
		_, err := f.svc.Create(ctx, f.farmerID, req, nil)
		require.NoError(t, err)
	}

	tests := []struct {
		q    string
		want []string
	}{
		{"", []string{"Rice", "Mango", "Tomatoes"}},
		{"tom", []string{"Tomatoes"}},
		{"FRUIT", []string{"Mango"}},
		{"malda", []string{"Mango"}},
		{"a", []string{"Rice", "Mango", "Tomatoes"}},
		{"100%", nil},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			list, err := f.svc.Search(ctx, tt.q)
			require.NoError(t, err)
			var names []string
			for _, p := range list {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	total, err := f.svc.TotalInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
}

func TestService_GetMissing(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
