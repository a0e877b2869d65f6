/******************************************************************************
 *
 *  Description :
 *
 *    Built-in reactive publications: login service configuration and
 *    auto-update client versions. Both follow the same shape: bulk-load a
 *    cache at start, snapshot it for every new subscriber, then forward
 *    change-feed deltas until the subscriber stops.
 *
 *****************************************************************************/

package main

import (
	"context"

	"github.com/notifex/notifex/server/store"
	"github.com/notifex/notifex/server/store/types"
)

const (
	loginServicesCollection = "login_service_configuration"
	loginServicesPubName    = "loginServiceConfiguration"

	autoUpdateCollection = "autoupdate_client_versions"
	autoUpdatePubName    = "autoUpdateClientVersions"
)

// registerBuiltinPublications bulk-loads the publication caches from the
// store and registers the handlers. The caches are kept current purely
// through change-feed events afterwards; there is no periodic re-fetch.
func registerBuiltinPublications(ctx context.Context, ps *PubServer, feed *Feed) error {
	loginServices := newPubCache()
	lsRecs, err := store.Pubs.LoginServices()
	if err != nil {
		return err
	}
	recs := make([]PubRecord, 0, len(lsRecs))
	for _, rec := range lsRecs {
		recs = append(recs, PubRecord{ID: rec.ID, Data: rec})
	}
	loginServices.Load(recs)

	versions := newPubCache()
	cvRecs, err := store.Pubs.ClientVersions()
	if err != nil {
		return err
	}
	recs = recs[:0]
	for _, rec := range cvRecs {
		recs = append(recs, PubRecord{ID: rec.ID, Data: rec})
	}
	versions.Load(recs)

	ps.Publish(loginServicesPubName, loginServicesHandler(loginServices, feed))
	ps.Publish(autoUpdatePubName, autoUpdateHandler(versions, feed))

	feed.watchCollection(ctx, loginServicesCollection, loginServicesPubName)
	feed.watchCollection(ctx, autoUpdateCollection, autoUpdatePubName)

	return nil
}

func loginServicesHandler(cache *PubCache, feed *Feed) PublicationHandler {
	return func(pub *Publication) {
		cache.Range(func(rec PubRecord) {
			pub.Added(loginServicesCollection, rec.ID, rec.Data)
		})

		cancel := feed.Listen(loginServicesPubName, func(action types.ChangeAction, rec PubRecord) {
			switch action {
			case types.ChangeAdded:
				cache.Set(rec)
				pub.Added(loginServicesCollection, rec.ID, rec.Data)
			case types.ChangeChanged:
				cache.Set(rec)
				pub.Changed(loginServicesCollection, rec.ID, rec.Data)
			case types.ChangeRemoved:
				cache.Delete(rec.ID)
				pub.Removed(loginServicesCollection, rec.ID)
			}
		})

		pub.OnStop(cancel)
		pub.Ready()
	}
}

// Client version records are only ever upserted upstream: removals are not
// propagated, adds and changes both read as "changed" to the client.
func autoUpdateHandler(cache *PubCache, feed *Feed) PublicationHandler {
	return func(pub *Publication) {
		cache.Range(func(rec PubRecord) {
			pub.Added(autoUpdateCollection, rec.ID, rec.Data)
		})

		cancel := feed.Listen(autoUpdatePubName, func(action types.ChangeAction, rec PubRecord) {
			switch action {
			case types.ChangeAdded, types.ChangeChanged:
				cache.Set(rec)
				pub.Changed(autoUpdateCollection, rec.ID, rec.Data)
			case types.ChangeRemoved:
				// Ignored.
			}
		})

		pub.OnStop(cancel)
		pub.Ready()
	}
}
