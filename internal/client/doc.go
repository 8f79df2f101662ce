// Package client connects to a mapcastd viewer endpoint and keeps a local
// mirror of one map view, for terminal and test viewers.
package client
