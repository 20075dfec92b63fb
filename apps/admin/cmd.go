package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/kalimaclub/kalima/core/member"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db        *sql.DB
	memberSvc *member.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a migration command (up, down, status, ...)")
	fmt.Println("  addmember -name NAME -email EMAIL [-role ROLE] - register a member")
	fmt.Println("  verifymember -id ID [-reject] - approve (or reject) a pending tutor/committee account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addMemberCmd := flag.NewFlagSet("addmember", flag.ExitOnError)
	addMemberName := addMemberCmd.String("name", "", "The member's full name.")
	addMemberEmail := addMemberCmd.String("email", "", "The member's email address.")
	addMemberRole := addMemberCmd.String("role", member.RoleStudent, "The member's role.")

	verifyMemberCmd := flag.NewFlagSet("verifymember", flag.ExitOnError)
	verifyMemberID := verifyMemberCmd.String("id", "", "The member's ID.")
	verifyMemberReject := verifyMemberCmd.Bool("reject", false, "Reject the account instead of approving it.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addmember":
		if err := addMemberCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addMemberName == "" || *addMemberEmail == "" {
			addMemberCmd.Usage()
			return errHelp
		}
		return cli.addMember(*addMemberName, *addMemberEmail, *addMemberRole)
	case "verifymember":
		if err := verifyMemberCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *verifyMemberID == "" {
			verifyMemberCmd.Usage()
			return errHelp
		}
		return cli.verifyMember(*verifyMemberID, !*verifyMemberReject)
	default:
		cli.printUsage()
		return errHelp
	}
}
