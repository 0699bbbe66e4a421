package utils

// RepoVersion is the release version, replaced at build time.
var RepoVersion = "develop"
