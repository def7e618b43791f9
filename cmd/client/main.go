// Command client is a CLI for manually exercising the order matching
// engine's HTTP submission surface.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")

	submitCmd := flag.NewFlagSet("submit", flag.ExitOnError)
	submitID := submitCmd.Uint64("id", 0, "Order id")
	submitType := submitCmd.String("type", "NORMAL", "Order type (NORMAL/KILL)")
	submitSide := submitCmd.String("side", "BUY", "Order side (BUY/SELL)")
	submitPrice := submitCmd.Int64("price", 0, "Order price (ticks)")
	submitQty := submitCmd.Uint64("qty", 0, "Order quantity")
	submitMin := submitCmd.Uint64("min", 0, "Minimum quantity")
	submitExpire := submitCmd.Int64("expires", 0, "Expiration unix timestamp (0 = none)")

	modifyCmd := flag.NewFlagSet("modify", flag.ExitOnError)
	modifyID := modifyCmd.Uint64("id", 0, "Order id")
	modifyType := modifyCmd.String("type", "NORMAL", "Order type (NORMAL/KILL)")
	modifySide := modifyCmd.String("side", "BUY", "Order side (BUY/SELL)")
	modifyPrice := modifyCmd.Int64("price", 0, "New price (ticks)")
	modifyQty := modifyCmd.Uint64("qty", 0, "New quantity")
	modifyMin := modifyCmd.Uint64("min", 0, "New minimum quantity")

	cancelCmd := flag.NewFlagSet("cancel", flag.ExitOnError)
	cancelID := cancelCmd.Uint64("id", 0, "Order id to cancel")

	cancelExpCmd := flag.NewFlagSet("cancel-expiration", flag.ExitOnError)
	cancelExpID := cancelExpCmd.Uint64("id", 0, "Order id whose expiration to cancel")

	bookCmd := flag.NewFlagSet("book", flag.ExitOnError)
	bookDepth := bookCmd.Int("depth", 10, "Number of levels to show")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	flag.Parse()

	switch os.Args[1] {
	case "submit":
		submitCmd.Parse(os.Args[2:])
		submitOrder(*serverURL, *submitID, *submitType, *submitSide, *submitPrice, *submitQty, *submitMin, *submitExpire)
	case "modify":
		modifyCmd.Parse(os.Args[2:])
		modifyOrder(*serverURL, *modifyID, *modifyType, *modifySide, *modifyPrice, *modifyQty, *modifyMin)
	case "cancel":
		cancelCmd.Parse(os.Args[2:])
		cancelOrder(*serverURL, *cancelID)
	case "cancel-expiration":
		cancelExpCmd.Parse(os.Args[2:])
		cancelExpiration(*serverURL, *cancelExpID)
	case "book":
		bookCmd.Parse(os.Args[2:])
		getBook(*serverURL, *bookDepth)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Order Matching Engine Client

Usage:
  client <command> [options]

Commands:
  submit             Submit a new order
  modify             Modify an existing order
  cancel             Cancel an existing order
  cancel-expiration  Cancel a pending expiration
  book               View the order book snapshot

Examples:
  client submit -id 1 -side BUY -price 100 -qty 10
  client modify -id 1 -side BUY -price 99 -qty 10
  client cancel -id 1
  client cancel-expiration -id 1
  client book -depth 5`)
}

type orderBody struct {
	ID              uint64 `json:"id"`
	OrderType       string `json:"order_type"`
	OrderSide       string `json:"order_side"`
	Price           int64  `json:"price"`
	Quantity        uint64 `json:"quantity"`
	MinimumQuantity uint64 `json:"minimum_quantity"`
	ExpirationDate  *int64 `json:"expiration_date,omitempty"`
}

func submitOrder(serverURL string, id uint64, typ, side string, price int64, qty, min uint64, expires int64) {
	body := orderBody{ID: id, OrderType: typ, OrderSide: side, Price: price, Quantity: qty, MinimumQuantity: min}
	if expires != 0 {
		body.ExpirationDate = &expires
	}
	postJSON(serverURL+"/create_order", body)
}

func modifyOrder(serverURL string, id uint64, typ, side string, price int64, qty, min uint64) {
	body := orderBody{ID: id, OrderType: typ, OrderSide: side, Price: price, Quantity: qty, MinimumQuantity: min}
	postJSON(serverURL+"/modify_order", body)
}

func cancelOrder(serverURL string, id uint64) {
	url := fmt.Sprintf("%s/cancel_order/%d", serverURL, id)
	postEmpty(url)
}

func cancelExpiration(serverURL string, id uint64) {
	url := fmt.Sprintf("%s/cancel_order_expiration/%d", serverURL, id)
	postEmpty(url)
}

func getBook(serverURL string, depth int) {
	url := fmt.Sprintf("%s/book?depth=%d", serverURL, depth)
	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	printJSONBytes(body)
}

func postJSON(url string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	fmt.Printf("%s\n", resp.Status)
}

func postEmpty(url string) {
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	fmt.Printf("%s\n", resp.Status)
}

func printJSONBytes(data []byte) {
	var obj interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		fmt.Println(string(data))
		return
	}
	pretty, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Println(string(pretty))
}
