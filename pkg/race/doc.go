// Package race resolves a postal code by racing several lookup providers.
//
// Every provider is started at once with a context derived from the caller's. The first
// provider to answer with an address wins and the race context is cancelled so the losers
// can stop early; the coordinator returns without waiting for them. When every provider
// fails, the caller receives an *AllFailedError holding one *types.ProviderError per
// provider, in the order the providers were registered.
//
// The coordinator never retries and has no internal timeout. Bound a lookup by wrapping
// the context, or use ResolveWithTimeout:
//
//	c, err := race.New([]types.Provider{viacep.New(viacep.Config{}), cepla.New(cepla.Config{})})
//	if err != nil {
//		return err
//	}
//	res, err := race.ResolveWithTimeout(ctx, c, "01310-200", 3*time.Second)
//	var failed *race.AllFailedError
//	if errors.As(err, &failed) {
//		for _, pe := range failed.Errors {
//			log.Printf("%s: %s", pe.Provider, pe.Code)
//		}
//	}
package race
