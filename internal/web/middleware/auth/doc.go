// Package auth provides the session middleware of the console api.
//
// The middleware reads the session cookie, loads the identity stored for it and
// places it in fiber.Locals under auth.LocalsIdentity, where the module and port
// checks of the core auth package pick it up. Requests without a valid session
// continue anonymously; the route guards decide whether that is enough.
//
// Usage:
//
//	app.Use(authmiddleware.Middleware)
package auth
