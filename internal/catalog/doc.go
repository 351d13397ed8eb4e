// Package catalog computes the set of trip-record files to download.
//
// The TLC publishes one parquet file per category and calendar month at a
// fixed origin. This package enumerates the months in a time window and
// derives, for each (category, month) pair, the remote URL and the storage
// location of the file. Nothing here touches the network or the filesystem.
//
// # Naming
//
//	URL:  {base}/{category}_{YYYY}-{MM}.parquet
//	Key:  {category}/{category}_{YYYY}-{MM}.parquet
//	Path: {root}/{category}/{category}_{YYYY}-{MM}.parquet
//
// # Window
//
// [Lookback] starts on the first day of the month that lies the given number
// of calendar years before now and ends with the current month, inclusive.
// One year therefore yields 13 months; zero years yields none.
//
//	months := catalog.Lookback(time.Now(), 5)
//	tasks := catalog.Plan(catalog.Spec{
//	    Base:       catalog.DefaultBaseURL,
//	    Root:       "nyc_tlc_data",
//	    Categories: catalog.Categories(),
//	    Months:     months,
//	})
package catalog
