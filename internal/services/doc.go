// Package services is the layer between the transports and the data.
// Handlers and the WebSocket hub call services; services load datasets,
// run the view pipeline and encode the result.
//
// # Available Services
//
//	- ViewService: view listing, derived views, charts, exports, boundaries
//	  and the WebSocket request handler
//	- HealthService: health, readiness, liveness and version
//
// # Error Handling
//
// Services return errors from internal/errors so the transports can map them
// to RFC 7807 documents without inspecting lower layers:
//
//	- unknown view: ViewNotFoundError (404)
//	- invalid parameters: validation AppError (400)
//	- unknown export format: ErrUnsupportedFormat (400)
//	- dataset load failure: DatasetsUnavailableError (503)
//
// # Testing
//
// Services depend on small interfaces, mocked with testify:
//
//	store := &mockStore{}
//	store.On("Load", mock.Anything).Return(datasettest.Snapshot(t), nil)
//	svc := NewViewService(store, views.NewPipeline(views.Defaults{}), ...)
package services
