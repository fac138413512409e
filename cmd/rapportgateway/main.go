package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/linkdata/rapport"
)

func main() {
	listenAddr := flag.String("listen", "127.0.0.1:0", "the address the HTTP server should listen on")
	printURL := flag.Bool("printurl", false, "print the listen URL on stdout")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")

	flag.Parse()

	args := flag.Args()

	if len(args) < 1 {
		log.Fatal("missing required argument: WebSocket URL of upstream rapport server")
	}

	gw := rapport.NewGateway(args[0])
	gw.Timeout = *timeout
	defer gw.Close()

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer ln.Close()

	hs := &http.Server{
		Addr:    ln.Addr().String(),
		Handler: gw,
	}
	defer hs.Close()

	if *printURL {
		fmt.Fprintf(os.Stdout, "http://%s/\n", ln.Addr().String())
	}

	err = hs.Serve(ln)
	if err != nil {
		log.Fatalln(err)
	}
}
