package main

import (
	"context"
	"fmt"

	"github.com/kalimaclub/kalima/core/member"
)

// addMember registers a member from the terminal, bypassing the identity
// provider. Handy for seeding a fresh install with the first admin.
func (cli *commandLine) addMember(name, email, role string) error {
	np := member.NewProfile{
		Name:  name,
		Email: email,
		Role:  role,
	}
	if err := np.Validate(); err != nil {
		return err
	}

	prf, err := cli.memberSvc.Create(context.Background(), np)
	if err != nil {
		return err
	}
	fmt.Printf("member created: %s (%s)\n", prf.ID, prf.Role)
	return nil
}
