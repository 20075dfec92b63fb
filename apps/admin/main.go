package main

import (
	"log"
	"os"

	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/member"
	emailsvc "github.com/kalimaclub/kalima/services/email"
	"github.com/kalimaclub/kalima/storage/database"
	pgrepos "github.com/kalimaclub/kalima/storage/database/postgres"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig(".")
	errAndDie(err)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// start CLI
	cli := commandLine{
		db:        db.DB,
		memberSvc: member.NewService(db.DB, pgrepos.NewMemberRepository(db), emailsvc.NewConsoleService(conf)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
