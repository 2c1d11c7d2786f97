// Package auth starts OAuth logins whose redirect lands on the app's private
// scheme, and summarizes delivered tokens without verifying or printing them.
package auth
