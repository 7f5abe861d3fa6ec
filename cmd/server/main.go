package main

import (
	"github.com/dwarvesf/btc-strk-purchase/internal/server"
)

// @title BTC to STRK purchase API
// @version 1.0
// @description Drives BTC to Starknet atomic purchases through a swap gateway.
// @BasePath /api/v1
func main() {
	server.Init()
}
