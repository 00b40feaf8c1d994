package app

// Version is stamped at build time (-ldflags "-X wcnotify/internal/app.Version=...").
var Version = "dev"
