package config

const (
	EnvPrefix = "storefront"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvGatewayBaseURL  = "STOREFRONT_GATEWAY_BASE_URL"
	EnvGatewayToken    = "STOREFRONT_GATEWAY_ACCESS_TOKEN"
	EnvAllowedOrigins  = "STOREFRONT_ALLOWED_ORIGINS"
	EnvCatalogPageSize = "STOREFRONT_CATALOG_PAGE_SIZE"
)
