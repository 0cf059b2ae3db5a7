package router

import (
	"context"
	"time"

	"github.com/oksasatya/go-recipe-api/internal/application"
	"github.com/oksasatya/go-recipe-api/internal/container"
	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
	handlers "github.com/oksasatya/go-recipe-api/internal/interface/http"
	"github.com/oksasatya/go-recipe-api/internal/router/modules"
	"github.com/oksasatya/go-recipe-api/pkg/helpers"
)

type UserModuleDeps struct {
	Service *application.UserService
	Handler *handlers.UserHandler
}

type RecipeModuleDeps struct {
	Recipes     *application.RecipeService
	Attributes  *application.AttributeService
	Handler     *handlers.RecipeHandler
	Tags        *handlers.AttributeHandler
	Ingredients *handlers.AttributeHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()

	// welcome mail is optional; a nil publisher skips it
	var mail application.JobPublisher
	if pub := container.GetRabbitPub(); pub != nil {
		mail = pub
	}

	service := application.NewUserService(
		container.GetStore().Users(),
		container.GetJWT(),
		container.GetRedis(),
		container.GetLogger(),
		mail,
		cfg.AppName,
	)

	handler := handlers.NewUserHandler(
		service,
		container.GetLogger(),
		cfg.CookieDomain,
		cfg.CookieSecure,
	)

	return UserModuleDeps{Service: service, Handler: handler}
}

func buildRecipeDeps() RecipeModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	recipes := application.NewRecipeService(
		container.GetStore(),
		container.GetImageStorage(),
		container.GetRecipeIndex(),
		logger,
		cfg.MaxUploadBytes,
	)
	attrs := application.NewAttributeService(container.GetStore(), logger)

	return RecipeModuleDeps{
		Recipes:     recipes,
		Attributes:  attrs,
		Handler:     handlers.NewRecipeHandler(recipes, logger),
		Tags:        handlers.NewAttributeHandler(attrs, entity.KindTag, logger),
		Ingredients: handlers.NewAttributeHandler(attrs, entity.KindIngredient, logger),
	}
}

// healthChecks covers every backing service that was configured at startup.
func healthChecks() map[string]modules.HealthCheck {
	checks := map[string]modules.HealthCheck{}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pool.Ping
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if es := container.GetES(); es != nil {
		checks["elasticsearch"] = func(ctx context.Context) error { return helpers.PingES(ctx, es, time.Second) }
	}
	if gcs, bucket := container.GetGCS(), container.GetConfig().GCSBucket; gcs != nil && bucket != "" {
		checks["gcs"] = func(ctx context.Context) error {
			_, err := gcs.Bucket(bucket).Attrs(ctx)
			return err
		}
	}
	return checks
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	userDeps := buildUserDeps()
	recipeDeps := buildRecipeDeps()

	r.Add(modules.NewHealthModule(healthChecks()))
	r.Add(modules.NewUserModule(userDeps.Handler, container.GetJWT(), container.GetRedis()))
	r.Add(modules.NewRecipeModule(recipeDeps.Handler, recipeDeps.Tags, recipeDeps.Ingredients, container.GetJWT(), container.GetRedis()))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis()))
	}
}
