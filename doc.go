// Package main is the entry point of GoFMG-Admin, a web console for FortiGate devices
// managed through FortiManager. It authenticates operators against the builtin admin
// credential, local accounts or a directory, maps directory groups to access profiles
// and restricts every operator to the modules and device ports their grant allows.
// The configuration document lives in a JSON file or a database table.
package main
