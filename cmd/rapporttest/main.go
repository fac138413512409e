package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"
	"time"

	"github.com/linkdata/rapport"
)

type echoTester struct {
	Socket  *rapport.Socket
	Timeout time.Duration
	Failed  int
}

func (e *echoTester) echo(method, route string, body interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), e.Timeout)
	defer cancel()
	actual, err := e.Socket.RequestWait(ctx, rapport.NewHTTPRequest(method, route, body))
	if err != nil {
		e.Failed++
		fmt.Printf("%s %s: %v\n", method, route, err)
		return
	}
	if !reflect.DeepEqual(body, actual) {
		e.Failed++
		fmt.Printf("%s %s\nexpect:\n[%v]\nactual:\n[%v]\n", method, route, body, actual)
	}
}

func main() {
	timeout := flag.Duration("timeout", 5*time.Second, "per request timeout")
	count := flag.Int("n", 100, "number of requests per check")
	flag.Parse()

	args := flag.Args()

	if len(args) < 1 {
		log.Fatal("missing required argument: WebSocket URL of upstream rapport server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	s, _, err := rapport.Dial(ctx, args[0], nil)
	cancel()
	if err != nil {
		log.Fatal(err)
	}
	go s.Serve()

	et := &echoTester{Socket: s, Timeout: *timeout}

	et.echo("POST", "/echo", "foo\nbar")
	et.echo("PUT", "/echo", map[string]interface{}{"foo": "bar", "list": []interface{}{"a", "b"}})
	for n := 0; n < *count; n++ {
		et.echo("POST", "/echo", fmt.Sprintf("message %d", n))
	}

	p, err := s.Close(nil, 0, *timeout)
	if err == nil {
		_, err = p.Wait(context.Background())
	}
	if err != nil {
		fmt.Print(err)
	}
	if et.Failed > 0 {
		os.Exit(1)
	}
}
