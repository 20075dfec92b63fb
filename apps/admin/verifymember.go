package main

import (
	"context"
	"fmt"
)

// verifyMember approves or rejects a pending tutor/committee account.
func (cli *commandLine) verifyMember(id string, approved bool) error {
	prf, err := cli.memberSvc.VerifyMember(context.Background(), id, approved)
	if err != nil {
		return err
	}
	fmt.Printf("member %s: %s\n", prf.ID, prf.VerificationStatus)
	return nil
}
