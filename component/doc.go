// Package component defines the lifecycle interface shared by the database
// connection and fixture sets, and a registry that starts them in order and
// stops them in reverse.
//
// A fixture suite registers the database first and its fixtures after it,
// so teardown always unloads data before the connection is closed.
package component
