package a

import "context"

type Person struct{ ID string }

type RelationalDB interface {
	FindPersonByID(ctx context.Context, id string) (*Person, error)
	ListEvidence(ctx context.Context) ([]string, error)
	SavePerson(ctx context.Context, p *Person) error
}

func bad(ctx context.Context, ids []string, db RelationalDB) {
	for _, id := range ids {
		db.FindPersonByID(ctx, id) // want "potential N\\+1: FindPersonByID called inside loop"
	}
	for i := 0; i < len(ids); i++ {
		if i > 0 {
			db.ListEvidence(ctx) // want "potential N\\+1: ListEvidence called inside loop"
		}
	}
}

func good(ctx context.Context, people []*Person, db RelationalDB) {
	evidence, _ := db.ListEvidence(ctx)
	for _, p := range people {
		_ = len(evidence)
		db.SavePerson(ctx, p)
	}
}
