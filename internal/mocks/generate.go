package mocks

//go:generate mockery --name EventStore --srcpkg github.com/craftmarket/salesagg/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name AggregateStore --srcpkg github.com/craftmarket/salesagg/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name AggregateCache --srcpkg github.com/craftmarket/salesagg/internal/cache --output ./cache --outpkg cachemocks --with-expecter
