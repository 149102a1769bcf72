package main

import (
	"fmt"
	"os"

	"github.com/fulldump/recordlist/bootstrap"
	"github.com/fulldump/recordlist/configuration"
)

func main() {

	c := configuration.Read()

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	s, _, err := bootstrap.Bootstrap(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err.Error())
		os.Exit(1)
	}

	<-s.Done()
}
