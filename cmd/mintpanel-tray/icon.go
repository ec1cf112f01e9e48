package main

import _ "embed"

// iconData is the MintPanel tray icon (64x64 PNG) embedded at compile time.
//
//go:embed tray-icon.png
var iconData []byte
