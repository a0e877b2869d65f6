/******************************************************************************
 *
 *  Description :
 *
 *  Setup & shutdown of the HTTP server serving websocket connections and
 *  runtime stats.
 *
 *****************************************************************************/

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notifex/notifex/server/logs"
)

func listenAndServe(addr string, mux *http.ServeMux, stop <-chan bool) error {
	shuttingDown := false

	httpdone := make(chan bool)

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logs.Info.Printf("Listening for client HTTP connections on [%s]", server.Addr)
		err := server.ListenAndServe()
		if err != nil {
			if shuttingDown {
				logs.Info.Printf("HTTP server: stopped")
			} else {
				logs.Err.Println("HTTP server: failed", err)
			}
		}
		httpdone <- true
	}()

	// Wait for either a termination signal or an error
loop:
	for {
		select {
		case <-stop:
			// Flip the flag that we are terminating and close the Accept-ing socket,
			// so no new connections are possible.
			shuttingDown = true
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := server.Shutdown(ctx); err != nil {
				cancel()
				return err
			}
			cancel()

			// Wait for http server to stop Accept()-ing connections.
			<-httpdone

			// Terminate all sessions.
			globals.sessionStore.Shutdown()

			// Shutdown the local cluster node, if it's a part of a cluster.
			globals.cluster.shutdown()

			// Shutdown the registry. It stops all channel subscriptions.
			regdone := make(chan bool)
			globals.registry.shutdown <- regdone
			<-regdone

			break loop

		case <-httpdone:
			break loop
		}
	}
	return nil
}

// signalHandler converts a SIGINT/SIGTERM into a write on the returned channel.
func signalHandler() <-chan bool {
	stop := make(chan bool)

	signchan := make(chan os.Signal, 1)
	signal.Notify(signchan, os.Interrupt, syscall.SIGTERM)

	go func() {
		// Wait for a signal. Don't care which signal it is
		sig := <-signchan
		logs.Info.Printf("Signal received: '%s', shutting down", sig)
		stop <- true
	}()

	return stop
}
