package parkdash

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/parkdash.Version=v1.2.3".
var Version = "0.1.0-dev"
