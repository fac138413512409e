package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/linkdata/rapport"
	"github.com/pkg/profile"
	"github.com/valyala/fasthttp"
)

var (
	flagListen   = flag.String("listen", "127.0.0.1:10111", "the address to listen on")
	flagFastHTTP = flag.Bool("fasthttp", false, "serve with valyala/fasthttp instead of net/http")
	flagProfile  = flag.Bool("profile", false, "write a CPU profile on exit")
	flagPrintURL = flag.Bool("printurl", false, "print the listen URL on stdout")
	flagNetLog   = flag.Bool("netlog", false, "log every message")
	flagStats    = flag.Duration("stats", 0, "log statistics at this interval")
)

var requestCount int64

func serveHome(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	atomic.AddInt64(&requestCount, 1)
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "It works!")
}

func serveEcho(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	atomic.AddInt64(&requestCount, 1)
	w.Header().Set("Content-Type", r.Header.Get("Content-Type"))
	io.Copy(w, r.Body)
}

func serveReturn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	atomic.AddInt64(&requestCount, 1)
	retcode, _ := strconv.Atoi(ps.ByName("retcode"))
	w.WriteHeader(retcode)
}

func serveSleep(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	atomic.AddInt64(&requestCount, 1)
	ms, _ := strconv.Atoi(ps.ByName("ms"))
	time.Sleep(time.Duration(ms) * time.Millisecond)
	fmt.Fprintf(w, "%d", ms)
}

func newRouter() *rapport.Router {
	rt := rapport.NewRouter()
	rt.GET("/", serveHome)
	rt.POST("/echo", serveEcho)
	rt.PUT("/echo", serveEcho)
	rt.GET("/return/:retcode", serveReturn)
	rt.GET("/sleep/:ms", serveSleep)
	return rt
}

func logStats(srv *rapport.Server, interval time.Duration) {
	lastRequests := atomic.LoadInt64(&requestCount)
	for range time.Tick(interval) {
		currRequests := atomic.LoadInt64(&requestCount)
		if currRequests != lastRequests {
			log.Printf("stats: Sockets=%d Requests=%d BytesIn=%d BytesOut=%d\n",
				srv.ActiveSockets(), currRequests-lastRequests, srv.BytesRead(), srv.BytesWritten())
			lastRequests = currRequests
		}
	}
}

func main() {
	flag.Parse()

	if *flagProfile {
		defer profile.Start().Stop()
	}

	rt := newRouter()
	srv := &rapport.Server{
		Handler: func(s *rapport.Socket) {
			s.OnRequest(rt.ServeRequest)
			s.OnMessage(func(msg *rapport.Message, s *rapport.Socket) {
				if err := s.Send(msg.Body); err != nil {
					log.Print(s, " ", err)
				}
			})
		},
	}
	srv.Upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	srv.FastCheckOrigin = func(ctx *fasthttp.RequestCtx) bool { return true }
	srv.NetLog(*flagNetLog)

	ln, err := srv.Listen(*flagListen)
	if err != nil {
		log.Fatal(err)
	}
	if *flagPrintURL {
		fmt.Fprintf(os.Stdout, "ws://%s/\n", ln.Addr().String())
	}
	if *flagStats > 0 {
		go logStats(srv, *flagStats)
	}

	stopChannel := make(chan os.Signal, 1)
	signal.Notify(stopChannel, os.Interrupt)
	go func() {
		<-stopChannel
		srv.Close()
		ln.Close()
	}()

	log.Print("starting rapport server on ", ln.Addr())
	if *flagFastHTTP {
		err = serveFast(srv, ln)
	} else {
		err = srv.Serve(ln)
	}
	if err != nil && err != rapport.ErrServerClosed {
		log.Print(err)
	}
}

func serveFast(srv *rapport.Server, ln net.Listener) error {
	fs := &fasthttp.Server{Handler: srv.ServeFastHTTP}
	return fs.Serve(ln)
}
