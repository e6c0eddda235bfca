package server

// @title wakectl API
// @version 1.0
// @description Wake services in dependency order and watch their health

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:7700
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the configured api_token.
