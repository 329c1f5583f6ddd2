package di

import (
	"fmt"

	"github.com/nexusfarm/nexus/internal/clientdata"
	"github.com/nexusfarm/nexus/internal/modules/activity"
	"github.com/nexusfarm/nexus/internal/modules/orders"
	"github.com/nexusfarm/nexus/internal/modules/products"
	"github.com/nexusfarm/nexus/internal/modules/users"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories over the container database
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("container database cannot be nil")
	}
	x := container.DB.X()

	container.ClientDataRepo = clientdata.NewRepository(container.DB.Conn())
	container.ActivityRepo = activity.NewRepository(x, log)
	container.UserRepo = users.NewRepository(x, log)
	container.ProductRepo = products.NewRepository(x, log)
	container.OrderRepo = orders.NewRepository(x, log)

	log.Debug().Msg("Repositories initialized")
	return nil
}
