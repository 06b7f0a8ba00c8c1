package graph

import "fmt"

func errDuplicateID(id string) error {
	return fmt.Errorf("id %q already exists", id)
}

func errMissingEndpoint(id string) error {
	return fmt.Errorf("relationship endpoint %q does not exist", id)
}
