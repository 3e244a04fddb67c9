// Package catalog holds the canonical multi-site product model: the product
// aggregate with its per-site maps, field selection, size ladders, SKU
// generation and the per-operation category cache.
package catalog
