// Package fetch performs the remote JSON reads behind the web data layer and
// normalizes every failure into a platform error with a stable code.
package fetch
