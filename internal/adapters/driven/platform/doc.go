// Package platform provides driven adapters describing the local device:
// compatibility rules, preferred locales, the installed package inventory
// and the repository seed file.
package platform
