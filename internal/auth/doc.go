// Package auth implements access control of the console: who may log in, with
// which profile, and which device ports they may act on.
//
// # Authentication
//
// Authenticator checks credentials in a fixed order:
//   - the builtin admin/admin recovery login, which works even with a corrupt document
//   - local accounts of the configuration document, verified with Argon2id
//   - the directory, when enabled, through DirectoryClient
//
// A successful directory bind is turned into a profile by ResolveRole. The first group
// mapping whose match string equals or is contained in one of the user's groups wins.
// A bind without a matching mapping is an *UnauthorizedGroupError carrying the groups.
//
// DirectoryClient tries servers in configured order and, per server, the bind names
// PREFIX\user and user@domain (domain taken from the dc= parts of the base DN).
// Every connection is closed on every path, including when the overall budget runs out.
//
// # Authorization
//
// Engine evaluates an Identity against the profiles and its port whitelist:
//   - the admin user and the Super_User role have write access to every module and every port
//   - other roles get the levels of their profile, none if the profile does not exist
//   - a port is allowed when it is in the global whitelist or the whitelist of the device
//
// An empty whitelist denies every port.
//
// Example usage:
//
//	store := auth.NewIdentityStore(manager)
//	authenticator := auth.NewAuthenticator(store, auth.NewDirectoryClient(cfg.Directory))
//	engine := auth.NewEngine(store)
//
//	id, err := authenticator.Authenticate(ctx, username, password)
//	if err != nil {
//	    return auth.PublicMessage(err)
//	}
//
//	if engine.CanAccessPort(id, "fgt-01", "port3") {
//	    // ...
//	}
package auth
