package types

// Version is the notemirror release version.
const Version = "0.2.0"
