// Package bootstrap runs a service's lifecycle: typed configuration,
// ordered component start, business wiring callbacks, signal handling and
// reverse-order shutdown.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	app.RegisterComponent(dbComponent)
//	app.RegisterComponent(serverComponent)
//	app.OnConfigure(wireHandlers)
//	return app.Run(ctx)
package bootstrap
