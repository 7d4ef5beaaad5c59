// Package httputil provides shared JSON response helpers for handlers.
package httputil
