// Package main writes a development CA and a server certificate signed by
// it. An existing CA in the output directory is reused.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/palamut62/my-notes/internal/certgen"
)

func main() {
	var (
		dir   string
		hosts string
		days  int
	)
	flag.StringVar(&dir, "out", "certs", "output directory")
	flag.StringVar(&hosts, "hosts", "localhost,127.0.0.1", "comma separated server names and IPs")
	flag.IntVar(&days, "days", 365, "server certificate validity in days")
	flag.Parse()

	ca, err := loadOrCreateCA(dir)
	if err != nil {
		log.Fatal(err)
	}

	server, err := ca.IssueServer(strings.Split(hosts, ","), time.Duration(days)*24*time.Hour)
	if err != nil {
		log.Fatal(err)
	}
	if err := certgen.WriteFiles(dir, "server", server); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("✅ Certificates written to %s\n", dir)
	fmt.Printf("   server: -tls-cert %s -tls-key %s\n",
		filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
	fmt.Printf("   client: --ca %s\n", filepath.Join(dir, "ca.crt"))
}

func loadOrCreateCA(dir string) (*certgen.Authority, error) {
	certPath, keyPath := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")
	ca, err := certgen.LoadAuthority(certPath, keyPath)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return ca, err
	}

	ca, err = certgen.NewAuthority("my-notes development CA", 10*365*24*time.Hour)
	if err != nil {
		return nil, err
	}
	pair, err := ca.PEM()
	if err != nil {
		return nil, err
	}
	if err := certgen.WriteFiles(dir, "ca", pair); err != nil {
		return nil, err
	}
	return ca, nil
}
