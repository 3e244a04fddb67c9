// Package integration defines the ports through which the sync engine talks
// to storefront sites: the per-site REST client, its wire shapes and error
// taxonomy, the image cleanup capability and sync event publishing.
package integration
