// ABOUTME: Command-line controller for a metrodrone server
// ABOUTME: Finds a server, invokes one method and optionally follows events
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/metrodrone/metrodrone-go/internal/client"
	"github.com/metrodrone/metrodrone-go/internal/discovery"
	"github.com/metrodrone/metrodrone-go/internal/protocol"
)

var (
	serverAddr = flag.String("server", "", "Server address host:port (default: discover via mDNS)")
	name       = flag.String("name", "metrodrone-ctl", "Controller name")
	method     = flag.String("method", "", "Method to invoke, e.g. metronome/setBpm")
	args       = flag.String("args", "{}", "Method arguments as JSON, e.g. '{\"bpm\":96}'")
	follow     = flag.Bool("follow", false, "Print field and tick events until interrupted")
	list       = flag.Bool("list", false, "List methods and exit")
	verbose    = flag.Bool("v", false, "Log connection details")
)

func main() {
	flag.Parse()

	log.SetFlags(0)
	if *verbose {
		log.SetFlags(log.Ltime | log.Lmicroseconds)
	}

	if *list {
		fmt.Println(strings.Join(protocol.Methods, "\n"))
		return
	}

	addr := *serverAddr
	if addr == "" {
		server, err := discovery.Find()
		if err != nil {
			log.Fatalf("No server given and none discovered: %v", err)
		}
		addr = server.Addr()
		log.Printf("Using %s at %s", server.Name, addr)
	}

	c := client.NewClient(client.Config{ServerAddr: addr, Name: *name})
	if err := c.Connect(); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer c.Close()

	hello := c.Server()
	log.Printf("Connected to %s (%s %s)", hello.Name, hello.Device.ProductName, hello.Device.SoftwareVersion)

	select {
	case state := <-c.State:
		printJSON("state", state)
	case <-time.After(client.CallTimeout):
		log.Printf("No initial state received")
	}

	if *method != "" {
		var a protocol.Args
		if err := json.Unmarshal([]byte(*args), &a); err != nil {
			log.Fatalf("Invalid -args JSON: %v", err)
		}

		result, err := c.Call(*method, a)
		if err != nil {
			log.Fatalf("%v", err)
		}
		printJSON("result", result)
	}

	if !*follow {
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	poll := time.NewTicker(500 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case ev := <-c.Fields:
			fmt.Printf("%s.%s = %v\n", ev.Stream, ev.Field, ev.Value)
		case ev := <-c.Ticks:
			fmt.Printf("tick %d\n", ev.Beat)
		case state := <-c.State:
			printJSON("state", state)
		case <-poll.C:
			if !c.IsConnected() {
				log.Printf("Server closed the connection")
				return
			}
		case <-sigChan:
			return
		}
	}
}

func printJSON(label string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to encode %s: %v", label, err)
		return
	}
	fmt.Printf("%s %s\n", label, data)
}
