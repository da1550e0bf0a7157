// internal/catalog/seed.go
package catalog

var sampleMovies = []Movie{
	{
		Title:       "The Shawshank Redemption",
		Description: "Two imprisoned men bond over a number of years, finding solace and eventual redemption through acts of common decency.",
		ReleaseYear: 1994,
		Genre:       "Drama",
		Rating:      9.3,
	},
	{
		Title:       "Inception",
		Description: "A thief who steals corporate secrets through the use of dream-sharing technology is given the inverse task of planting an idea.",
		ReleaseYear: 2010,
		Genre:       "Sci-Fi",
		Rating:      8.8,
	},
	{
		Title:       "The Dark Knight",
		Description: "When the menace known as the Joker wreaks havoc and chaos on the people of Gotham, Batman must accept one of the greatest psychological tests.",
		ReleaseYear: 2008,
		Genre:       "Action",
		Rating:      9.0,
	},
}

// SampleMovies returns the movies every fresh catalog starts with, without IDs.
func SampleMovies() []Movie {
	out := make([]Movie, len(sampleMovies))
	copy(out, sampleMovies)
	return out
}
