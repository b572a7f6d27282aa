// Package mocks provides function-field mocks of the service interfaces
// shared by the HTTP test suites.
//
// Each mock calls its XxxFn field when set and otherwise returns the
// zero-value defaults held in its plain fields:
//
//	tasks := &mocks.MockTaskService{
//	    ListFn: func(ctx context.Context, p domain.Principal, q service.TaskQuery) ([]*domain.Task, error) {
//	        return nil, nil
//	    },
//	}
package mocks
